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

package fetch_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nmiyake/pkg/dirs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/fetch"
	"github.com/palantir/crateaudit/internal/terminal"
)

func TestLoadDatabase(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	repoURL := server.URL + "/rustsec/advisory-db.git"

	existingDB := filepath.Join(tmpDir, "existing")
	require.NoError(t, os.MkdirAll(filepath.Join(existingDB, "crates"), 0755))
	missingDB := filepath.Join(tmpDir, "missing")

	for i, tc := range []struct {
		name       string
		param      config.DatabaseParam
		wantErr    string
		wantOutput string
	}{
		{
			name:       "fetch disabled",
			param:      config.DatabaseParam{Path: existingDB, URL: repoURL},
			wantOutput: fmt.Sprintf("      Loaded 0 security advisories (from %s)\n", existingDB),
		},
		{
			name:    "fetch fails",
			param:   config.DatabaseParam{Path: existingDB, URL: repoURL, Fetch: true},
			wantErr: "failed to fetch advisory database",
		},
		{
			name:    "fetch fails with stale allowed and no local copy",
			param:   config.DatabaseParam{Path: missingDB, URL: repoURL, Fetch: true, Stale: true},
			wantErr: "failed to fetch advisory database",
		},
		{
			name:  "fetch fails with stale allowed",
			param: config.DatabaseParam{Path: existingDB, URL: repoURL, Fetch: true, Stale: true},
			wantOutput: fmt.Sprintf("    Fetching advisory database from `%s`\n", repoURL) +
				"warning: couldn't fetch advisory database: ",
		},
	} {
		buf := &bytes.Buffer{}
		db, err := fetch.LoadDatabase(context.Background(), &fetch.Fetcher{}, tc.param, terminal.NewWriter(buf, terminal.ColorNever))
		if tc.wantErr != "" {
			require.Error(t, err, "Case %d: %s", i, tc.name)
			assert.Contains(t, err.Error(), tc.wantErr, "Case %d: %s", i, tc.name)
			continue
		}
		require.NoError(t, err, "Case %d: %s", i, tc.name)
		assert.Equal(t, 0, db.Len(), "Case %d: %s", i, tc.name)
		assert.Contains(t, buf.String(), tc.wantOutput, "Case %d: %s", i, tc.name)
	}
	assert.DirExists(t, filepath.Join(existingDB, "crates"))
}
