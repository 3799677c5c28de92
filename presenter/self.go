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
	"github.com/palantir/crateaudit/advisory"
)

const selfAdvisoryMessage = "This copy of crateaudit has known advisories! Upgrade crateaudit to the latest version: " +
	"go install github.com/palantir/crateaudit@latest"

// PrintSelfReport prints the advisories that apply to this program. Nothing is printed if there are none.
func (p *Presenter) PrintSelfReport(advisories []*advisory.Advisory) error {
	if len(advisories) == 0 {
		return nil
	}

	denied := p.config.DeniesWarnings()
	if denied {
		if err := p.stderr.Error("%s", selfAdvisoryMessage); err != nil {
			return err
		}
	} else {
		if err := p.stderr.Warning("%s", selfAdvisoryMessage); err != nil {
			return err
		}
	}

	for _, adv := range advisories {
		if err := p.printAttrs(warningColor(denied), metadataAttrs(adv.Metadata)); err != nil {
			return err
		}
	}
	return p.stdout.Println("")
}

// ShouldExitWithFailureDueToSelf returns true if advisories apply to this program and warnings are denied.
func (p *Presenter) ShouldExitWithFailureDueToSelf(advisories []*advisory.Advisory) bool {
	return len(advisories) > 0 && p.config.DeniesWarnings()
}
