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

// Package report defines the result of auditing a lockfile against an advisory database.
package report

import (
	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/lockfile"
)

// WarningKind is the category of a non-fatal finding.
type WarningKind string

const (
	WarningKindNotice       WarningKind = "notice"
	WarningKindUnmaintained WarningKind = "unmaintained"
	WarningKindUnsound      WarningKind = "unsound"
	WarningKindYanked       WarningKind = "yanked"
)

// WarningKinds returns every warning kind in display order.
func WarningKinds() []WarningKind {
	return []WarningKind{
		WarningKindNotice,
		WarningKindUnmaintained,
		WarningKindUnsound,
		WarningKindYanked,
	}
}

// ParseWarningKind parses the name of a warning kind.
func ParseWarningKind(s string) (WarningKind, error) {
	for _, kind := range WarningKinds() {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", errors.Errorf("unknown warning kind %q", s)
}

// WarningKindForInformational returns the warning kind that an informational advisory is reported as.
func WarningKindForInformational(informational advisory.Informational) (WarningKind, bool) {
	switch informational {
	case advisory.InformationalNotice:
		return WarningKindNotice, true
	case advisory.InformationalUnmaintained:
		return WarningKindUnmaintained, true
	case advisory.InformationalUnsound:
		return WarningKindUnsound, true
	default:
		return "", false
	}
}

// Vulnerability is an advisory that applies to a package in the lockfile.
type Vulnerability struct {
	Advisory advisory.Metadata `json:"advisory"`
	Versions advisory.Versions `json:"versions"`
	Package  lockfile.Package  `json:"package"`
}

// Warning is a non-fatal finding about a package in the lockfile.
type Warning struct {
	Kind     WarningKind        `json:"kind"`
	Package  lockfile.Package   `json:"package"`
	Advisory *advisory.Metadata `json:"advisory"`
	Versions *advisory.Versions `json:"versions"`
}

// Vulnerabilities is the list of vulnerabilities found along with its summary.
type Vulnerabilities struct {
	Found bool            `json:"found"`
	Count int             `json:"count"`
	List  []Vulnerability `json:"list"`
}

// DatabaseInfo describes the advisory database a report was generated from.
type DatabaseInfo struct {
	AdvisoryCount int `json:"advisory-count"`
}

// LockfileInfo describes the lockfile a report was generated for.
type LockfileInfo struct {
	DependencyCount int `json:"dependency-count"`
}

// Report is the result of auditing one lockfile.
type Report struct {
	Database        DatabaseInfo              `json:"database"`
	Lockfile        LockfileInfo              `json:"lockfile"`
	Settings        Settings                  `json:"settings"`
	Vulnerabilities Vulnerabilities           `json:"vulnerabilities"`
	Warnings        map[WarningKind][]Warning `json:"warnings"`
}

// AddWarnings adds warnings to the report, grouped by kind.
func (r *Report) AddWarnings(warnings ...Warning) {
	if r.Warnings == nil {
		r.Warnings = make(map[WarningKind][]Warning)
	}
	for _, w := range warnings {
		r.Warnings[w.Kind] = append(r.Warnings[w.Kind], w)
	}
}

// WarningCount returns the total number of warnings in the report.
func (r *Report) WarningCount() int {
	count := 0
	for _, warnings := range r.Warnings {
		count += len(warnings)
	}
	return count
}
