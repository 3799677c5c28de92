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

// Package affected lists which published versions of a crate are affected by an advisory.
package affected

import (
	"context"
	"io"
	"iter"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/internal/terminal"
)

// VulnerabilityPredicate reports whether a version is affected. advisory.Versions implements this interface.
type VulnerabilityPredicate interface {
	IsVulnerable(version *semver.Version) bool
}

// VersionStatus is the classification of a single published version.
type VersionStatus struct {
	Version    string
	Vulnerable bool
}

func (s VersionStatus) String() string {
	if s.Vulnerable {
		return s.Version + " vulnerable"
	}
	return s.Version + " OK"
}

// Classify returns a sequence that classifies every version against the predicate in order. If a version cannot be
// parsed, the error is yielded and the sequence ends. The returned sequence holds no state and may be iterated
// multiple times.
func Classify(predicate VulnerabilityPredicate, versions []string) iter.Seq2[VersionStatus, error] {
	return func(yield func(VersionStatus, error) bool) {
		for _, version := range versions {
			parsed, err := advisory.ParseVersion(version)
			if err != nil {
				yield(VersionStatus{Version: version}, err)
				return
			}
			if !yield(VersionStatus{Version: version, Vulnerable: predicate.IsVulnerable(parsed)}, nil) {
				return
			}
		}
	}
}

// VersionSource returns the published versions of a crate. *index.Client implements this interface.
type VersionSource interface {
	CrateVersions(ctx context.Context, name string) ([]string, error)
}

// Lister prints the affected and unaffected versions of the crates named by advisories.
type Lister struct {
	db     *advisory.Database
	source VersionSource
	color  terminal.ColorMode
}

// NewLister returns a lister that reads advisories from db and published versions from source.
func NewLister(db *advisory.Database, source VersionSource, color terminal.ColorMode) *Lister {
	return &Lister{
		db:     db,
		source: source,
		color:  color,
	}
}

// ProcessOne prints the status of every published version of the crate that adv applies to.
func (l *Lister) ProcessOne(ctx context.Context, stdout io.Writer, adv *advisory.Advisory) error {
	out := terminal.NewWriter(stdout, l.color)
	if err := out.Status("Loaded", "%s for '%s'", adv.ID(), adv.Metadata.Package); err != nil {
		return err
	}

	versions, err := l.source.CrateVersions(ctx, adv.Metadata.Package)
	if err != nil {
		return errors.Wrapf(err, "failed to load versions of crate %s", adv.Metadata.Package)
	}
	for status, err := range Classify(adv.Versions, versions) {
		if err != nil {
			return errors.Wrapf(err, "failed to classify versions of crate %s for %s", adv.Metadata.Package, adv.ID())
		}
		if err := out.Println(status.String()); err != nil {
			return err
		}
	}
	return nil
}

// ProcessAll processes every crate advisory in the database. Advisories in other collections are skipped. An
// advisory without a collection is an error.
func (l *Lister) ProcessAll(ctx context.Context, stdout io.Writer) error {
	for _, adv := range l.db.Advisories() {
		if adv.Metadata.Collection == nil {
			return errors.Errorf("advisory %s does not belong to a collection", adv.ID())
		}
		if *adv.Metadata.Collection != advisory.CollectionCrates {
			continue
		}
		if err := l.ProcessOne(ctx, stdout, adv); err != nil {
			return err
		}
	}
	return nil
}

// ProcessIDs processes the advisories with the provided IDs in order.
func (l *Lister) ProcessIDs(ctx context.Context, stdout io.Writer, ids []advisory.ID) error {
	for _, id := range ids {
		adv, ok := l.db.Get(id)
		if !ok {
			return errors.Errorf("advisory %s not found in database", id)
		}
		if err := l.ProcessOne(ctx, stdout, adv); err != nil {
			return err
		}
	}
	return nil
}
