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
	"strings"

	"github.com/jtacoma/uritemplates"
)

// ID is an advisory identifier such as "RUSTSEC-2019-0001", "CVE-2021-1234" or "GHSA-xxxx-xxxx-xxxx".
type ID string

// IDKind is the namespace an ID belongs to.
type IDKind string

const (
	IDKindRustSec IDKind = "RUSTSEC"
	IDKindCVE     IDKind = "CVE"
	IDKindGHSA    IDKind = "GHSA"
	IDKindOther   IDKind = "OTHER"
)

var idURLTemplates = map[IDKind]*uritemplates.UriTemplate{
	IDKindRustSec: mustParseTemplate("https://rustsec.org/advisories/{id}.html"),
	IDKindCVE:     mustParseTemplate("https://cve.mitre.org/cgi-bin/cvename.cgi?name={id}"),
	IDKindGHSA:    mustParseTemplate("https://github.com/advisories/{id}"),
}

func mustParseTemplate(tmpl string) *uritemplates.UriTemplate {
	t, err := uritemplates.Parse(tmpl)
	if err != nil {
		panic(err)
	}
	return t
}

// Kind returns the namespace of the identifier based on its prefix.
func (id ID) Kind() IDKind {
	switch {
	case strings.HasPrefix(string(id), "RUSTSEC-"):
		return IDKindRustSec
	case strings.HasPrefix(string(id), "CVE-"):
		return IDKindCVE
	case strings.HasPrefix(string(id), "GHSA-"):
		return IDKindGHSA
	default:
		return IDKindOther
	}
}

// URL returns the canonical URL for the identifier. Returns false if the namespace of the identifier does not have
// a canonical location.
func (id ID) URL() (string, bool) {
	tmpl, ok := idURLTemplates[id.Kind()]
	if !ok {
		return "", false
	}
	url, err := tmpl.Expand(map[string]interface{}{
		"id": string(id),
	})
	if err != nil {
		return "", false
	}
	return url, true
}

func (id ID) String() string {
	return string(id)
}
