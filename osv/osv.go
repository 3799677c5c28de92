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

// Package osv exports advisories in the OSV format (https://ossf.github.io/osv-schema/).
package osv

import (
	"time"

	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/advisory"
)

const (
	SchemaVersion = "1.4.0"
	Ecosystem     = "crates.io"
)

// Record and related types mirror the OSV JSON structure.
type Record struct {
	SchemaVersion    string           `json:"schema_version"`
	ID               string           `json:"id"`
	Modified         string           `json:"modified"`
	Published        string           `json:"published"`
	Aliases          []string         `json:"aliases"`
	Summary          string           `json:"summary"`
	Details          string           `json:"details"`
	Severity         []Severity       `json:"severity"`
	Affected         []Affected       `json:"affected"`
	References       []Reference      `json:"references"`
	DatabaseSpecific DatabaseSpecific `json:"database_specific"`
}

type Severity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

type Affected struct {
	Package          Package                  `json:"package"`
	Ranges           []Range                  `json:"ranges"`
	DatabaseSpecific AffectedDatabaseSpecific `json:"database_specific"`
}

type Package struct {
	Ecosystem string `json:"ecosystem"`
	Name      string `json:"name"`
	PURL      string `json:"purl"`
}

type Range struct {
	Type   string  `json:"type"`
	Events []Event `json:"events"`
}

// Event is a single range event. Exactly one field is set.
type Event struct {
	Introduced   string `json:"introduced,omitempty"`
	Fixed        string `json:"fixed,omitempty"`
	LastAffected string `json:"last_affected,omitempty"`
}

type Reference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type DatabaseSpecific struct {
	License advisory.License `json:"license"`
}

type AffectedDatabaseSpecific struct {
	Categories    []string               `json:"categories"`
	CVSS          *string                `json:"cvss"`
	Informational advisory.Informational `json:"informational,omitempty"`
}

// NewRecord converts an advisory into an OSV record.
func NewRecord(adv *advisory.Advisory) (*Record, error) {
	published, err := timestamp(adv.Metadata.Date)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid date for advisory %s", adv.ID())
	}
	modified := published
	if adv.Metadata.Withdrawn != nil {
		if modified, err = timestamp(*adv.Metadata.Withdrawn); err != nil {
			return nil, errors.Wrapf(err, "invalid withdrawn date for advisory %s", adv.ID())
		}
	}
	events, err := Events(adv.Versions)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compute affected ranges for advisory %s", adv.ID())
	}

	record := &Record{
		SchemaVersion: SchemaVersion,
		ID:            string(adv.ID()),
		Modified:      modified,
		Published:     published,
		Aliases:       []string{},
		Summary:       adv.Metadata.Title,
		Details:       adv.Metadata.Description,
		Severity:      []Severity{},
		Affected: []Affected{
			{
				Package: Package{
					Ecosystem: Ecosystem,
					Name:      adv.Metadata.Package,
					PURL:      "pkg:cargo/" + adv.Metadata.Package,
				},
				Ranges: []Range{
					{Type: "SEMVER", Events: events},
				},
				DatabaseSpecific: AffectedDatabaseSpecific{
					Categories:    nonNil(adv.Metadata.Categories),
					Informational: adv.Metadata.Informational,
				},
			},
		},
		References: []Reference{},
		DatabaseSpecific: DatabaseSpecific{
			License: adv.Metadata.License,
		},
	}
	for _, alias := range adv.Metadata.Aliases {
		record.Aliases = append(record.Aliases, string(alias))
	}
	if cvss := adv.Metadata.CVSS; cvss != nil {
		vector := cvss.Vector()
		record.Severity = append(record.Severity, Severity{Type: "CVSS_V3", Score: vector})
		record.Affected[0].DatabaseSpecific.CVSS = &vector
	}
	if idURL, ok := adv.ID().URL(); ok {
		record.References = append(record.References, Reference{Type: "ADVISORY", URL: idURL})
	}
	if adv.Metadata.URL != nil {
		record.References = append(record.References, Reference{Type: "WEB", URL: *adv.Metadata.URL})
	}
	return record, nil
}

// timestamp converts a "YYYY-MM-DD" date into an RFC 3339 timestamp at noon UTC.
func timestamp(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return t.Add(12 * time.Hour).UTC().Format(time.RFC3339), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
