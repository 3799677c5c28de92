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
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nmiyake/pkg/dirs"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/report"
)

const testAdvisory = "```toml\n[advisory]\nid = \"RUSTSEC-2020-0001\"\npackage = \"demo\"\ndate = \"2020-01-01\"\n\n[versions]\npatched = [\">= 1.0.0\"]\n```\n\n# Memory corruption in demo\n\nDetails.\n"

const testLockfile = `version = 3

[[package]]
name = "app"
version = "0.1.0"
dependencies = [
 "demo",
]

[[package]]
name = "demo"
version = "0.9.0"
`

func setupAudit(t *testing.T) (string, string, func()) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "advisory-db")
	require.NoError(t, os.MkdirAll(filepath.Join(dbPath, "crates", "demo"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dbPath, "crates", "demo", "RUSTSEC-2020-0001.md"), []byte(testAdvisory), 0644))

	lockfilePath := filepath.Join(tmpDir, "Cargo.lock")
	require.NoError(t, os.WriteFile(lockfilePath, []byte(testLockfile), 0644))
	return dbPath, lockfilePath, cleanup
}

func testParam(dbPath string, format config.Format) config.Param {
	return config.Param{
		Database: config.DatabaseParam{Path: dbPath},
		Report:   report.DefaultSettings(),
		Output: config.OutputParam{
			Format:   format,
			ShowTree: true,
			Color:    terminal.ColorNever,
		},
	}
}

func TestRunAudit(t *testing.T) {
	dbPath, lockfilePath, cleanup := setupAudit(t)
	defer cleanup()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	failed, err := runAudit(context.Background(), cmd, testParam(dbPath, config.FormatTerminal), lockfilePath)
	require.NoError(t, err)
	assert.True(t, failed)

	assert.Contains(t, stdout.String(), "Crate:    demo\nVersion:  0.9.0\nTitle:    Memory corruption in demo\n")
	assert.Contains(t, stdout.String(), "Dependency tree:\ndemo 0.9.0\n└── app 0.1.0\n")
	assert.Equal(t, "      Loaded 1 security advisories (from "+dbPath+")\n"+
		"    Scanning "+lockfilePath+" for vulnerabilities (2 crate dependencies)\n"+
		"error: 1 vulnerability found!\n", stderr.String())
}

func TestRunAuditJSON(t *testing.T) {
	dbPath, lockfilePath, cleanup := setupAudit(t)
	defer cleanup()

	stdout := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})

	failed, err := runAudit(context.Background(), cmd, testParam(dbPath, config.FormatJSON), lockfilePath)
	require.NoError(t, err)
	assert.True(t, failed)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, float64(1), decoded["vulnerabilities"].(map[string]interface{})["count"])
}

func TestRunAuditNoVulnerabilities(t *testing.T) {
	dbPath, lockfilePath, cleanup := setupAudit(t)
	defer cleanup()

	param := testParam(dbPath, config.FormatTerminal)
	param.Report.Ignore = []string{"RUSTSEC-2020-.*"}
	param.Output.Quiet = true

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	failed, err := runAudit(context.Background(), cmd, param, lockfilePath)
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}
