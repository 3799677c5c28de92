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

package index_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/nmiyake/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/crateaudit/index"
	"github.com/palantir/crateaudit/lockfile"
)

const demoEntries = `{"name":"demo","vers":"0.9.0","deps":[],"cksum":"aa","features":{},"yanked":false}
{"name":"demo","vers":"1.0.0","deps":[],"cksum":"bb","features":{},"yanked":true}
`

func TestPath(t *testing.T) {
	for i, tc := range []struct {
		name string
		want string
	}{
		{"a", "1/a"},
		{"ab", "2/ab"},
		{"abc", "3/a/abc"},
		{"Serde", "se/rd/serde"},
		{"demo", "de/mo/demo"},
	} {
		assert.Equal(t, tc.want, index.Path(tc.name), "Case %d: %s", i, tc.name)
	}
}

func TestClient(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Path != "/de/mo/demo" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, demoEntries)
	}))
	defer server.Close()

	client, err := index.New(server.URL+"/", tmpDir)
	require.NoError(t, err)

	versions, err := client.CrateVersions(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.9.0", "1.0.0"}, versions)

	yanked, err := client.IsYanked(context.Background(), lockfile.Package{Name: "demo", Version: semver.MustParse("1.0.0")})
	require.NoError(t, err)
	assert.True(t, yanked)

	yanked, err = client.IsYanked(context.Background(), lockfile.Package{Name: "demo", Version: semver.MustParse("0.9.0")})
	require.NoError(t, err)
	assert.False(t, yanked)

	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	cached, err := os.ReadFile(filepath.Join(tmpDir, "de", "mo", "demo"))
	require.NoError(t, err)
	assert.Equal(t, demoEntries, string(cached))

	_, err = client.CrateVersions(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, index.ErrCrateNotFound))
}

func TestClientFallsBackToCache(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	cachePath := filepath.Join(tmpDir, "de", "mo", "demo")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0755))
	require.NoError(t, os.WriteFile(cachePath, []byte(demoEntries), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := index.New(server.URL, tmpDir)
	require.NoError(t, err)
	versions, err := client.CrateVersions(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.9.0", "1.0.0"}, versions)

	_, err = client.CrateVersions(context.Background(), "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500 Internal Server Error")
}
