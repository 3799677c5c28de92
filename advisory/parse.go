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
	"bufio"
	"bytes"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	frontMatterStart = "```toml"
	frontMatterEnd   = "```"
)

// advisoryFile is the TOML front matter of an advisory Markdown file.
type advisoryFile struct {
	Advisory struct {
		ID            string   `toml:"id"`
		Package       string   `toml:"package"`
		Date          string   `toml:"date"`
		URL           *string  `toml:"url"`
		CVSS          string   `toml:"cvss"`
		Informational string   `toml:"informational"`
		License       string   `toml:"license"`
		Aliases       []string `toml:"aliases"`
		Categories    []string `toml:"categories"`
		Keywords      []string `toml:"keywords"`
		Withdrawn     *string  `toml:"withdrawn"`
	} `toml:"advisory"`
	Versions struct {
		Patched    []string `toml:"patched"`
		Unaffected []string `toml:"unaffected"`
	} `toml:"versions"`
}

// Parse parses an advisory in the Markdown format: a fenced TOML front matter block followed by a "# Title" heading
// and the description.
func Parse(content []byte) (*Advisory, error) {
	frontMatter, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}

	var f advisoryFile
	if err := toml.Unmarshal(frontMatter, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal advisory front matter")
	}
	if f.Advisory.ID == "" {
		return nil, errors.Errorf("advisory is missing required field 'id'")
	}
	if f.Advisory.Package == "" {
		return nil, errors.Errorf("advisory %s is missing required field 'package'", f.Advisory.ID)
	}

	title, description := splitTitle(body)
	if title == "" {
		return nil, errors.Errorf("advisory %s is missing a title", f.Advisory.ID)
	}

	versions, err := NewVersions(f.Versions.Patched, f.Versions.Unaffected)
	if err != nil {
		return nil, errors.Wrapf(err, "advisory %s", f.Advisory.ID)
	}

	license := License(f.Advisory.License)
	if license == "" {
		license = LicenseCC0
	}

	metadata := Metadata{
		ID:            ID(f.Advisory.ID),
		Package:       f.Advisory.Package,
		Title:         title,
		Description:   description,
		Date:          f.Advisory.Date,
		Aliases:       []ID{},
		Categories:    nonNil(f.Advisory.Categories),
		Keywords:      nonNil(f.Advisory.Keywords),
		Informational: Informational(f.Advisory.Informational),
		URL:           f.Advisory.URL,
		Withdrawn:     f.Advisory.Withdrawn,
		License:       license,
	}
	for _, alias := range f.Advisory.Aliases {
		metadata.Aliases = append(metadata.Aliases, ID(alias))
	}
	if f.Advisory.CVSS != "" {
		severity, err := ParseSeverity(f.Advisory.CVSS)
		if err != nil {
			return nil, errors.Wrapf(err, "advisory %s", f.Advisory.ID)
		}
		metadata.CVSS = severity
	}

	return &Advisory{
		Metadata: metadata,
		Versions: versions,
	}, nil
}

func splitFrontMatter(content []byte) ([]byte, string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	var (
		frontMatter bytes.Buffer
		body        strings.Builder
		state       int // 0: before front matter, 1: in front matter, 2: body
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch state {
		case 0:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.TrimSpace(line) != frontMatterStart {
				return nil, "", errors.Errorf("advisory must begin with a %s front matter block", frontMatterStart)
			}
			state = 1
		case 1:
			if strings.TrimSpace(line) == frontMatterEnd {
				state = 2
				continue
			}
			frontMatter.WriteString(line)
			frontMatter.WriteByte('\n')
		default:
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", errors.Wrapf(err, "failed to read advisory")
	}
	if state != 2 {
		return nil, "", errors.Errorf("unterminated %s front matter block", frontMatterStart)
	}
	return frontMatter.Bytes(), body.String(), nil
}

// splitTitle returns the first "# " heading of the body and the trimmed text that follows it.
func splitTitle(body string) (string, string) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "# ") {
		return "", body
	}
	title, rest, _ := strings.Cut(body, "\n")
	return strings.TrimSpace(strings.TrimPrefix(title, "# ")), strings.TrimSpace(rest)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
