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

// Package advisory provides the advisory model and the on-disk advisory database.
package advisory

import (
	"github.com/pkg/errors"
)

// Collection is the top-level category of an advisory database entry.
type Collection string

const (
	// CollectionCrates contains advisories against crates published to crates.io.
	CollectionCrates Collection = "crates"
	// CollectionRust contains advisories against the Rust toolchain itself.
	CollectionRust Collection = "rust"
)

// License is the SPDX identifier of the license an advisory is published under.
type License string

const (
	LicenseCC0   License = "CC0-1.0"
	LicenseCCBY4 License = "CC-BY-4.0"
)

// Informational is the kind of an informational (non-vulnerability) advisory.
type Informational string

const (
	InformationalNotice       Informational = "notice"
	InformationalUnmaintained Informational = "unmaintained"
	InformationalUnsound      Informational = "unsound"
)

// ParseInformational parses the name of an informational advisory kind.
func ParseInformational(s string) (Informational, error) {
	switch informational := Informational(s); informational {
	case InformationalNotice, InformationalUnmaintained, InformationalUnsound:
		return informational, nil
	default:
		return "", errors.Errorf("unknown informational advisory kind %q", s)
	}
}

// Metadata is the descriptive part of an advisory.
type Metadata struct {
	ID            ID            `json:"id"`
	Package       string        `json:"package"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Date          string        `json:"date"`
	Aliases       []ID          `json:"aliases"`
	Collection    *Collection   `json:"collection"`
	Categories    []string      `json:"categories"`
	Keywords      []string      `json:"keywords"`
	CVSS          *Severity     `json:"cvss"`
	Informational Informational `json:"informational,omitempty"`
	URL           *string       `json:"url"`
	Withdrawn     *string       `json:"withdrawn"`
	License       License       `json:"license"`
}

// Advisory is a single entry of the advisory database.
type Advisory struct {
	Metadata Metadata `json:"advisory"`
	Versions Versions `json:"versions"`
}

// ID returns the identifier of the advisory.
func (a *Advisory) ID() ID {
	return a.Metadata.ID
}

// Withdrawn returns true if the advisory has been withdrawn and should no longer be reported.
func (a *Advisory) Withdrawn() bool {
	return a.Metadata.Withdrawn != nil
}

// PreferredURL returns the single URL that should be displayed for the advisory. For advisories published under
// CC-BY-4.0 the explicit URL is preferred over the ID-derived one; for every other license the ID-derived URL is
// preferred.
func (m Metadata) PreferredURL() (string, bool) {
	idURL, hasIDURL := m.ID.URL()
	if m.License == LicenseCCBY4 {
		if m.URL != nil {
			return *m.URL, true
		}
		return idURL, hasIDURL
	}
	if hasIDURL {
		return idURL, true
	}
	if m.URL != nil {
		return *m.URL, true
	}
	return "", false
}
