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

package presenter

import (
	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/report"
)

type warningKindSet map[report.WarningKind]struct{}

func denyWarningKinds(opts []config.DenyOption) warningKindSet {
	kinds := make(warningKindSet)
	for _, opt := range opts {
		for _, kind := range opt.WarningKinds() {
			kinds[kind] = struct{}{}
		}
	}
	return kinds
}

func (s warningKindSet) contains(kind report.WarningKind) bool {
	_, ok := s[kind]
	return ok
}

// countWarnings returns the number of denied and allowed warnings in the report.
func (p *Presenter) countWarnings(r *report.Report) (denied, allowed int) {
	for kind, warnings := range r.Warnings {
		if p.denyWarningKinds.contains(kind) {
			denied += len(warnings)
		} else {
			allowed += len(warnings)
		}
	}
	return denied, allowed
}

func warningColor(denied bool) terminal.Color {
	if denied {
		return terminal.Red
	}
	return terminal.Yellow
}

func warningWord(count int) string {
	if count == 1 {
		return "warning"
	}
	return "warnings"
}
