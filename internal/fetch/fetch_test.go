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
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archiver/v3"
	"github.com/nmiyake/pkg/dirs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/crateaudit/internal/fetch"
)

func TestArchiveURL(t *testing.T) {
	for i, tc := range []struct {
		repoURL string
		want    string
	}{
		{"https://github.com/rustsec/advisory-db.git", "https://github.com/rustsec/advisory-db/archive/refs/heads/main.tar.gz"},
		{"git@github.com:rustsec/advisory-db.git", "https://github.com/rustsec/advisory-db/archive/refs/heads/main.tar.gz"},
		{"https://git.example.com/mirror/advisory-db", "https://git.example.com/mirror/advisory-db/archive/main.tar.gz"},
	} {
		got, err := fetch.ArchiveURL(tc.repoURL, "main")
		require.NoError(t, err, "Case %d", i)
		assert.Equal(t, tc.want, got, "Case %d", i)
	}
}

func TestFetch(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	srcDir := filepath.Join(tmpDir, "src")
	advisoryPath := filepath.Join(srcDir, "advisory-db-main", "crates", "demo", "RUSTSEC-2020-0001.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(advisoryPath), 0755))
	require.NoError(t, os.WriteFile(advisoryPath, []byte("```toml\n[advisory]\nid = \"RUSTSEC-2020-0001\"\npackage = \"demo\"\n```\n\n# Title\n"), 0644))
	archivePath := filepath.Join(tmpDir, "main.tar.gz")
	require.NoError(t, archiver.NewTarGz().Archive([]string{filepath.Join(srcDir, "advisory-db-main")}, archivePath))

	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		http.ServeFile(w, r, archivePath)
	}))
	defer server.Close()

	dbPath := filepath.Join(tmpDir, "cargo", "advisory-db")
	require.NoError(t, os.MkdirAll(filepath.Join(dbPath, "stale"), 0755))

	fetcher := &fetch.Fetcher{}
	require.NoError(t, fetcher.Fetch(context.Background(), server.URL+"/rustsec/advisory-db.git", dbPath))

	assert.Equal(t, "/rustsec/advisory-db/archive/main.tar.gz", requestedPath)
	content, err := os.ReadFile(filepath.Join(dbPath, "crates", "demo", "RUSTSEC-2020-0001.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `id = "RUSTSEC-2020-0001"`)
	assert.NoDirExists(t, filepath.Join(dbPath, "stale"))

	entries, err := os.ReadDir(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "advisory-db", entries[0].Name())
}

func TestFetchFailureKeepsExistingDatabase(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dbPath := filepath.Join(tmpDir, "advisory-db")
	require.NoError(t, os.MkdirAll(filepath.Join(dbPath, "crates"), 0755))

	fetcher := &fetch.Fetcher{}
	err = fetcher.Fetch(context.Background(), server.URL+"/rustsec/advisory-db.git", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404 Not Found")
	assert.DirExists(t, filepath.Join(dbPath, "crates"))
}
