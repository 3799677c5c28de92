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

package cmdinternal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nmiyake/pkg/dirs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/cmdinternal"
	"github.com/palantir/crateaudit/internal/terminal"
)

func TestParamFromFlagVals(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	cfgFile := filepath.Join(tmpDir, "audit.yml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`database:
  path: /from/config
advisories:
  ignore:
    - RUSTSEC-2020-0001
output:
  deny:
    - yanked
  color: always
`), 0644))

	dbPath := "/from/flag"
	color := "never"
	param, err := cmdinternal.ParamFromFlagVals(cmdinternal.GlobalFlagVals{
		ConfigFile:   cfgFile,
		DatabasePath: &dbPath,
		NoFetch:      true,
		Quiet:        true,
		Color:        &color,
	}, cmdinternal.AuditFlagVals{
		Deny:   []string{"unsound"},
		Ignore: []string{"RUSTSEC-2021-0002"},
		JSON:   true,
		NoTree: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/from/flag", param.Database.Path)
	assert.False(t, param.Database.Fetch)
	assert.False(t, param.Yanked.Enabled)
	assert.Equal(t, []string{"RUSTSEC-2020-0001", "RUSTSEC-2021-0002"}, param.Report.Ignore)
	assert.Equal(t, config.OutputParam{
		Format:   config.FormatJSON,
		Deny:     []config.DenyOption{config.DenyYanked, config.DenyUnsound},
		Quiet:    true,
		ShowTree: false,
		Color:    terminal.ColorNever,
	}, param.Output)
}

func TestParamFromFlagValsInvalidDeny(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	_, err = cmdinternal.ParamFromFlagVals(cmdinternal.GlobalFlagVals{
		ConfigFile: filepath.Join(tmpDir, "missing.yml"),
	}, cmdinternal.AuditFlagVals{
		Deny: []string{"all"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid deny option "all"`)
}

func TestParamFromFlagValsInvalidIgnore(t *testing.T) {
	tmpDir, cleanup, err := dirs.TempDir("", "")
	require.NoError(t, err)
	defer cleanup()

	_, err = cmdinternal.ParamFromFlagVals(cmdinternal.GlobalFlagVals{
		ConfigFile: filepath.Join(tmpDir, "missing.yml"),
	}, cmdinternal.AuditFlagVals{
		Ignore: []string{"RUSTSEC-(2020"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid advisory ignore pattern "RUSTSEC-(2020"`)
}
