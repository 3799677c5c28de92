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
	"fmt"
	"strings"

	gocvss31 "github.com/pandatix/go-cvss/31"
	"github.com/pkg/errors"
)

// Severity is a parsed CVSS v3.1 base vector.
type Severity struct {
	vector string
	score  float64
	rating string
}

// ParseSeverity parses a CVSS v3 vector string such as "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H".
func ParseSeverity(vector string) (*Severity, error) {
	cvss, err := gocvss31.ParseVector(vector)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid CVSS vector %q", vector)
	}
	score := cvss.BaseScore()
	rating, err := gocvss31.Rating(score)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid CVSS score %v", score)
	}
	return &Severity{
		vector: vector,
		score:  score,
		rating: strings.ToLower(rating),
	}, nil
}

// Vector returns the original vector string.
func (s *Severity) Vector() string {
	return s.vector
}

// Score returns the CVSS base score.
func (s *Severity) Score() float64 {
	return s.score
}

// Rating returns the qualitative severity: "none", "low", "medium", "high" or "critical".
func (s *Severity) Rating() string {
	return s.rating
}

// String renders the severity as "<score> (<rating>)", for example "9.8 (critical)".
func (s *Severity) String() string {
	return fmt.Sprintf("%.1f (%s)", s.score, s.rating)
}

func (s *Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.vector)
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var vector string
	if err := json.Unmarshal(data, &vector); err != nil {
		return err
	}
	parsed, err := ParseSeverity(vector)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
