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

package report

import (
	"context"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/palantir/pkg/matcher"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/lockfile"
)

// Settings control which advisories are reported and how.
type Settings struct {
	// Ignore is a list of advisory ID patterns (regular expressions) that are never reported.
	Ignore []string `json:"ignore"`
	// InformationalWarnings are the kinds of informational advisories reported as warnings. Informational
	// advisories of other kinds are dropped.
	InformationalWarnings []advisory.Informational `json:"informational_warnings"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Ignore: []string{},
		InformationalWarnings: []advisory.Informational{
			advisory.InformationalNotice,
			advisory.InformationalUnmaintained,
			advisory.InformationalUnsound,
		},
	}
}

// Validate returns an error if an ignore pattern is not a valid regular expression.
func (s Settings) Validate() error {
	for _, pattern := range s.Ignore {
		if _, err := regexp.Compile(pattern); err != nil {
			return errors.Wrapf(err, "invalid advisory ignore pattern %q", pattern)
		}
	}
	return nil
}

// YankedChecker reports whether a package version has been yanked from its registry.
type YankedChecker interface {
	IsYanked(ctx context.Context, pkg lockfile.Package) (bool, error)
}

// Generate audits every package of the lockfile against the crate advisories of the database. Withdrawn and
// ignored advisories are skipped. Informational advisories become warnings when their kind is enabled in settings.
// The settings must be valid (see Settings.Validate).
func Generate(db *advisory.Database, lf *lockfile.Lockfile, settings Settings) *Report {
	r := &Report{
		Database: DatabaseInfo{
			AdvisoryCount: db.Len(),
		},
		Lockfile: LockfileInfo{
			DependencyCount: len(lf.Packages),
		},
		Settings: settings,
		Vulnerabilities: Vulnerabilities{
			List: []Vulnerability{},
		},
		Warnings: make(map[WarningKind][]Warning),
	}

	var ignored matcher.Matcher
	if len(settings.Ignore) > 0 {
		ignored = matcher.Name(settings.Ignore...)
	}
	informationalKinds := make(map[advisory.Informational]struct{})
	for _, informational := range settings.InformationalWarnings {
		informationalKinds[informational] = struct{}{}
	}

	for _, pkg := range lf.Packages {
		for _, adv := range db.CrateAdvisories(pkg.Name) {
			if adv.Withdrawn() {
				continue
			}
			if ignored != nil && ignored.Match(string(adv.ID())) {
				logrus.WithField("id", adv.ID()).Debug("ignoring advisory")
				continue
			}
			if !adv.Versions.IsVulnerable(pkg.Version) {
				continue
			}

			if adv.Metadata.Informational == "" {
				r.Vulnerabilities.List = append(r.Vulnerabilities.List, Vulnerability{
					Advisory: adv.Metadata,
					Versions: adv.Versions,
					Package:  pkg,
				})
				continue
			}
			if _, ok := informationalKinds[adv.Metadata.Informational]; !ok {
				continue
			}
			kind, ok := WarningKindForInformational(adv.Metadata.Informational)
			if !ok {
				continue
			}
			metadata := adv.Metadata
			versions := adv.Versions
			r.AddWarnings(Warning{
				Kind:     kind,
				Package:  pkg,
				Advisory: &metadata,
				Versions: &versions,
			})
		}
	}

	r.Vulnerabilities.Count = len(r.Vulnerabilities.List)
	r.Vulnerabilities.Found = r.Vulnerabilities.Count > 0
	return r
}

// YankedWarnings returns a warning for every registry package of the lockfile that the checker reports as yanked.
// Packages without a registry source, such as path dependencies, are not checked.
func YankedWarnings(ctx context.Context, checker YankedChecker, lf *lockfile.Lockfile) ([]Warning, error) {
	var warnings []Warning
	for _, pkg := range lf.Packages {
		if !isRegistrySource(pkg.Source) {
			continue
		}
		yanked, err := checker.IsYanked(ctx, pkg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to check whether %s %s is yanked", pkg.Name, pkg.Version)
		}
		if yanked {
			warnings = append(warnings, Warning{
				Kind:    WarningKindYanked,
				Package: pkg,
			})
		}
	}
	return warnings, nil
}

func isRegistrySource(source string) bool {
	return strings.HasPrefix(source, "registry+") || strings.HasPrefix(source, "sparse+")
}

// SelfAdvisories returns the advisories of the database that apply to the given version of the named crate, used to
// check whether the running binary itself is affected. Withdrawn advisories are skipped.
func SelfAdvisories(db *advisory.Database, name string, version *semver.Version) []*advisory.Advisory {
	var out []*advisory.Advisory
	for _, adv := range db.CrateAdvisories(name) {
		if adv.Withdrawn() || !adv.Versions.IsVulnerable(version) {
			continue
		}
		out = append(out, adv)
	}
	return out
}
