// Copyright 2016 Palantir Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package advisory

import (
	"encoding/json"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// ParseVersion parses a full semantic version ("1.2.3", "0.1.0-alpha.1"). Partial versions are rejected.
func ParseVersion(version string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid version %q", version)
	}
	return v, nil
}

// Requirement is a version requirement in Cargo syntax, for example ">= 1.2.3" or "^0.3, < 0.3.5".
type Requirement struct {
	raw        string
	constraint *semver.Constraints
}

// ParseRequirement parses a single requirement string. A comparator without an operator ("1.2.3") is a caret
// requirement, as in Cargo.
func ParseRequirement(req string) (Requirement, error) {
	c, err := semver.NewConstraint(cargoConstraint(req))
	if err != nil {
		return Requirement{}, errors.Wrapf(err, "invalid version requirement %q", req)
	}
	return Requirement{
		raw:        req,
		constraint: c,
	}, nil
}

func cargoConstraint(req string) string {
	comparators := strings.Split(req, ",")
	for i, comparator := range comparators {
		comparator = strings.TrimSpace(comparator)
		if comparator != "" && comparator[0] >= '0' && comparator[0] <= '9' && !strings.ContainsAny(comparator, "*xX") {
			comparator = "^" + comparator
		}
		comparators[i] = comparator
	}
	return strings.Join(comparators, ", ")
}

// Matches returns true if the version satisfies the requirement.
func (r Requirement) Matches(v *semver.Version) bool {
	if r.constraint == nil {
		return false
	}
	return r.constraint.Check(v)
}

func (r Requirement) String() string {
	return r.raw
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRequirement(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Versions describes which versions of a package an advisory applies to.
type Versions struct {
	Patched    []Requirement `json:"patched"`
	Unaffected []Requirement `json:"unaffected"`
}

// NewVersions parses the patched and unaffected requirement strings.
func NewVersions(patched, unaffected []string) (Versions, error) {
	versions := Versions{
		Patched:    []Requirement{},
		Unaffected: []Requirement{},
	}
	for _, req := range patched {
		parsed, err := ParseRequirement(req)
		if err != nil {
			return Versions{}, errors.Wrapf(err, "invalid patched version")
		}
		versions.Patched = append(versions.Patched, parsed)
	}
	for _, req := range unaffected {
		parsed, err := ParseRequirement(req)
		if err != nil {
			return Versions{}, errors.Wrapf(err, "invalid unaffected version")
		}
		versions.Unaffected = append(versions.Unaffected, parsed)
	}
	return versions, nil
}

// IsVulnerable returns true if the version is neither patched nor unaffected.
func (v Versions) IsVulnerable(version *semver.Version) bool {
	for _, req := range v.Patched {
		if req.Matches(version) {
			return false
		}
	}
	for _, req := range v.Unaffected {
		if req.Matches(version) {
			return false
		}
	}
	return true
}

// PatchedStrings returns the patched requirements in their original form.
func (v Versions) PatchedStrings() []string {
	return requirementStrings(v.Patched)
}

// UnaffectedStrings returns the unaffected requirements in their original form.
func (v Versions) UnaffectedStrings() []string {
	return requirementStrings(v.Unaffected)
}

func requirementStrings(reqs []Requirement) []string {
	out := make([]string, len(reqs))
	for i, req := range reqs {
		out[i] = req.String()
	}
	return out
}
