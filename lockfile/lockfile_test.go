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

package lockfile_test

import (
	"bytes"
	"testing"

	"github.com/palantir/crateaudit/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLockfile = `# This file is automatically @generated by Cargo.
version = 3

[[package]]
name = "ammonia"
version = "2.0.0"
source = "registry+https://github.com/rust-lang/crates.io-index"
checksum = "abc"
dependencies = [
 "html5ever",
]

[[package]]
name = "html5ever"
version = "0.22.5"
source = "registry+https://github.com/rust-lang/crates.io-index"
dependencies = [
 "log 0.4.14",
]

[[package]]
name = "log"
version = "0.4.14"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "myapp"
version = "0.1.0"
dependencies = [
 "ammonia",
 "log 0.4.14 (registry+https://github.com/rust-lang/crates.io-index)",
]
`

const cratesIO = "registry+https://github.com/rust-lang/crates.io-index"

func TestParse(t *testing.T) {
	lf, err := lockfile.Parse([]byte(testLockfile))
	require.NoError(t, err)

	assert.Equal(t, 3, lf.Version)
	require.Len(t, lf.Packages, 4)
	assert.Equal(t, "ammonia", lf.Packages[0].Name)
	assert.Equal(t, "2.0.0", lf.Packages[0].Version.String())
	assert.Equal(t, "abc", lf.Packages[0].Checksum)
	assert.Equal(t, []lockfile.PackageID{{Name: "html5ever", Version: "0.22.5", Source: cratesIO}}, lf.Packages[0].Dependencies)
	assert.Equal(t, []lockfile.PackageID{
		{Name: "ammonia", Version: "2.0.0", Source: cratesIO},
		{Name: "log", Version: "0.4.14", Source: cratesIO},
	}, lf.Packages[3].Dependencies)
}

func TestParseErrors(t *testing.T) {
	for i, tc := range []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid version",
			content: "[[package]]\nname = \"foo\"\nversion = \"1.0\"\n",
			wantErr: `invalid version "1.0" for package foo`,
		},
		{
			name:    "ambiguous dependency version",
			content: "[[package]]\nname = \"foo\"\nversion = \"1.0.0\"\ndependencies = [\"bar 1.0.0\"]\n\n[[package]]\nname = \"bar\"\nversion = \"1.0.0\"\nsource = \"registry+https://github.com/rust-lang/crates.io-index\"\n\n[[package]]\nname = \"bar\"\nversion = \"1.0.0\"\nsource = \"git+https://github.com/example/bar#abc\"\n",
			wantErr: `dependency "bar 1.0.0" does not refer to exactly one package (found 2)`,
		},
		{
			name:    "ambiguous dependency",
			content: "[[package]]\nname = \"foo\"\nversion = \"1.0.0\"\ndependencies = [\"bar\"]\n\n[[package]]\nname = \"bar\"\nversion = \"1.0.0\"\n\n[[package]]\nname = \"bar\"\nversion = \"2.0.0\"\n",
			wantErr: `dependency "bar" does not refer to exactly one package (found 2)`,
		},
	} {
		_, err := lockfile.Parse([]byte(tc.content))
		require.Error(t, err, "Case %d: %s", i, tc.name)
		assert.Contains(t, err.Error(), tc.wantErr, "Case %d: %s", i, tc.name)
	}
}

func TestDependencyTreeRenderIncoming(t *testing.T) {
	lf, err := lockfile.Parse([]byte(testLockfile))
	require.NoError(t, err)
	tree, err := lf.DependencyTree()
	require.NoError(t, err)

	node, ok := tree.Node(lockfile.PackageID{Name: "log", Version: "0.4.14", Source: cratesIO})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, tree.Render(&buf, node, lockfile.Incoming))
	assert.Equal(t, `log 0.4.14
├── html5ever 0.22.5
│   └── ammonia 2.0.0
│       └── myapp 0.1.0
└── myapp 0.1.0
`, buf.String())

	roots := tree.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, lockfile.PackageID{Name: "myapp", Version: "0.1.0"}, tree.ID(roots[0]))
}

func TestDependencyTreeRenderOutgoing(t *testing.T) {
	lf, err := lockfile.Parse([]byte(testLockfile))
	require.NoError(t, err)
	tree, err := lf.DependencyTree()
	require.NoError(t, err)

	node, ok := tree.Node(lockfile.PackageID{Name: "myapp", Version: "0.1.0"})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, tree.Render(&buf, node, lockfile.Outgoing))
	assert.Equal(t, `myapp 0.1.0
├── ammonia 2.0.0
│   └── html5ever 0.22.5
│       └── log 0.4.14
└── log 0.4.14
`, buf.String())
}

func TestDependencyTreeRenderTerminatesOnCycle(t *testing.T) {
	lf, err := lockfile.Parse([]byte(`
[[package]]
name = "a"
version = "1.0.0"
dependencies = ["b"]

[[package]]
name = "b"
version = "1.0.0"
dependencies = ["a"]
`))
	require.NoError(t, err)
	tree, err := lf.DependencyTree()
	require.NoError(t, err)

	node, ok := tree.Node(lockfile.PackageID{Name: "a", Version: "1.0.0"})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, tree.Render(&buf, node, lockfile.Incoming))
	assert.Equal(t, "a 1.0.0\n└── b 1.0.0\n", buf.String())
}

func TestDependencyTreeMissingDependency(t *testing.T) {
	lf, err := lockfile.Parse([]byte(`
[[package]]
name = "a"
version = "1.0.0"
dependencies = ["b 2.0.0"]
`))
	require.NoError(t, err)
	_, err = lf.DependencyTree()
	assert.EqualError(t, err, "package a 1.0.0 depends on b 2.0.0, which is not in the lockfile")
}

const sameVersionTwoSourcesLockfile = `
[[package]]
name = "app"
version = "0.1.0"
dependencies = [
 "foo 0.1.0 (registry+https://github.com/rust-lang/crates.io-index)",
 "tool",
]

[[package]]
name = "foo"
version = "0.1.0"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "foo"
version = "0.1.0"
source = "git+https://github.com/example/foo?branch=fix#0123abc"

[[package]]
name = "tool"
version = "1.0.0"
dependencies = [
 "foo 0.1.0 (git+https://github.com/example/foo?branch=fix#0123abc)",
]
`

func TestDependencyTreeSameVersionFromTwoSources(t *testing.T) {
	lf, err := lockfile.Parse([]byte(sameVersionTwoSourcesLockfile))
	require.NoError(t, err)
	assert.Equal(t, []lockfile.PackageID{
		{Name: "foo", Version: "0.1.0", Source: cratesIO},
		{Name: "tool", Version: "1.0.0"},
	}, lf.Packages[0].Dependencies)

	tree, err := lf.DependencyTree()
	require.NoError(t, err)

	for i, tc := range []struct {
		source string
		want   string
	}{
		{cratesIO, "foo 0.1.0\n└── app 0.1.0\n"},
		{"git+https://github.com/example/foo?branch=fix#0123abc", "foo 0.1.0\n└── tool 1.0.0\n    └── app 0.1.0\n"},
	} {
		node, ok := tree.Node(lockfile.PackageID{Name: "foo", Version: "0.1.0", Source: tc.source})
		require.True(t, ok, "Case %d: %s", i, tc.source)

		var buf bytes.Buffer
		require.NoError(t, tree.Render(&buf, node, lockfile.Incoming), "Case %d: %s", i, tc.source)
		assert.Equal(t, tc.want, buf.String(), "Case %d: %s", i, tc.source)
	}
}
