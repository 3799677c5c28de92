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

package presenter_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/presenter"
)

func TestPrintSelfReport(t *testing.T) {
	selfAdvisory := &advisory.Advisory{
		Metadata: advisory.Metadata{
			ID:      "RUSTSEC-2022-0001",
			Package: "crateaudit",
			Title:   "Advisory database is not verified",
			Date:    "2022-01-01",
			License: advisory.LicenseCC0,
		},
	}

	for i, tc := range []struct {
		name       string
		deny       []config.DenyOption
		advisories []*advisory.Advisory
		wantStdout string
		wantStderr string
		wantFail   bool
	}{
		{
			name:     "no advisories",
			deny:     []config.DenyOption{config.DenyWarnings},
			wantFail: false,
		},
		{
			name:       "advisories with warnings allowed",
			advisories: []*advisory.Advisory{selfAdvisory},
			wantStdout: "Title:    Advisory database is not verified\nDate:     2022-01-01\nID:       RUSTSEC-2022-0001\nURL:      https://rustsec.org/advisories/RUSTSEC-2022-0001.html\n\n",
			wantStderr: "warning: This copy of crateaudit has known advisories! Upgrade crateaudit to the latest version: go install github.com/palantir/crateaudit@latest\n",
			wantFail:   false,
		},
		{
			name:       "advisories with only yanked denied",
			deny:       []config.DenyOption{config.DenyYanked},
			advisories: []*advisory.Advisory{selfAdvisory},
			wantStdout: "Title:    Advisory database is not verified\nDate:     2022-01-01\nID:       RUSTSEC-2022-0001\nURL:      https://rustsec.org/advisories/RUSTSEC-2022-0001.html\n\n",
			wantStderr: "warning: This copy of crateaudit has known advisories! Upgrade crateaudit to the latest version: go install github.com/palantir/crateaudit@latest\n",
			wantFail:   false,
		},
		{
			name:       "advisories with warnings denied",
			deny:       []config.DenyOption{config.DenyWarnings},
			advisories: []*advisory.Advisory{selfAdvisory},
			wantStdout: "Title:    Advisory database is not verified\nDate:     2022-01-01\nID:       RUSTSEC-2022-0001\nURL:      https://rustsec.org/advisories/RUSTSEC-2022-0001.html\n\n",
			wantStderr: "error: This copy of crateaudit has known advisories! Upgrade crateaudit to the latest version: go install github.com/palantir/crateaudit@latest\n",
			wantFail:   true,
		},
	} {
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		p := presenter.New(stdout, stderr, outputParam(tc.deny...))
		require.NoError(t, p.PrintSelfReport(tc.advisories), "Case %d: %s", i, tc.name)

		assert.Equal(t, tc.wantStdout, stdout.String(), "Case %d: %s", i, tc.name)
		assert.Equal(t, tc.wantStderr, stderr.String(), "Case %d: %s", i, tc.name)
		assert.Equal(t, tc.wantFail, p.ShouldExitWithFailureDueToSelf(tc.advisories), "Case %d: %s", i, tc.name)
	}
}
