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

package config

import (
	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/report"
)

// DenyOption is a category of warnings that is treated as a failure.
type DenyOption string

const (
	// DenyWarnings denies warnings of every kind.
	DenyWarnings     DenyOption = "warnings"
	DenyUnmaintained DenyOption = "unmaintained"
	DenyUnsound      DenyOption = "unsound"
	DenyYanked       DenyOption = "yanked"
	DenyNotice       DenyOption = "notice"
)

// DenyOptions returns every valid deny option.
func DenyOptions() []DenyOption {
	return []DenyOption{
		DenyWarnings,
		DenyUnmaintained,
		DenyUnsound,
		DenyYanked,
		DenyNotice,
	}
}

// ParseDenyOption parses a single deny option.
func ParseDenyOption(s string) (DenyOption, error) {
	for _, opt := range DenyOptions() {
		if string(opt) == s {
			return opt, nil
		}
	}
	return "", errors.Errorf("invalid deny option %q: must be one of %v", s, DenyOptions())
}

// ParseDenyOptions parses every provided deny option, failing on the first invalid one.
func ParseDenyOptions(in []string) ([]DenyOption, error) {
	var out []DenyOption
	for _, s := range in {
		opt, err := ParseDenyOption(s)
		if err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
	return out, nil
}

// WarningKinds returns the warning kinds that the option denies.
func (o DenyOption) WarningKinds() []report.WarningKind {
	switch o {
	case DenyWarnings:
		return report.WarningKinds()
	case DenyUnmaintained:
		return []report.WarningKind{report.WarningKindUnmaintained}
	case DenyUnsound:
		return []report.WarningKind{report.WarningKindUnsound}
	case DenyYanked:
		return []report.WarningKind{report.WarningKindYanked}
	case DenyNotice:
		return []report.WarningKind{report.WarningKindNotice}
	default:
		return nil
	}
}
