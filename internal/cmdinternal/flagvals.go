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

package cmdinternal

import (
	"github.com/palantir/crateaudit/config"
)

// GlobalFlagVals is a struct that stores the global flag values set by commands. Pointer fields are nil if the
// flag was not provided, in which case the configuration file value is used.
type GlobalFlagVals struct {
	ConfigFile   string
	DatabasePath *string
	DatabaseURL  *string
	NoFetch      bool
	Stale        bool
	Quiet        bool
	Color        *string
}

// AuditFlagVals stores the flag values of the audit command.
type AuditFlagVals struct {
	Deny   []string
	Ignore []string
	JSON   bool
	NoTree bool
}

// ParamFromFlagVals loads the configuration file named by the global flags, applies the flag overrides and resolves
// the result.
func ParamFromFlagVals(globalFlagVals GlobalFlagVals, auditFlagVals AuditFlagVals) (config.Param, error) {
	cfg, err := config.LoadFromFile(globalFlagVals.ConfigFile)
	if err != nil {
		return config.Param{}, err
	}
	applyGlobalFlagVals(&cfg, globalFlagVals)
	applyAuditFlagVals(&cfg, auditFlagVals)
	return cfg.ToParam()
}

func applyGlobalFlagVals(cfg *config.AuditConfig, flagVals GlobalFlagVals) {
	if flagVals.DatabasePath != nil {
		cfg.Database.Path = flagVals.DatabasePath
	}
	if flagVals.DatabaseURL != nil {
		cfg.Database.URL = flagVals.DatabaseURL
	}
	if flagVals.NoFetch {
		cfg.Database.Fetch = boolPtr(false)
		cfg.Yanked.Enabled = boolPtr(false)
	}
	if flagVals.Stale {
		cfg.Database.Stale = boolPtr(true)
	}
	if flagVals.Quiet {
		cfg.Output.Quiet = boolPtr(true)
	}
	if flagVals.Color != nil {
		cfg.Output.Color = flagVals.Color
	}
}

func applyAuditFlagVals(cfg *config.AuditConfig, flagVals AuditFlagVals) {
	cfg.Output.Deny = append(cfg.Output.Deny, flagVals.Deny...)
	cfg.Advisories.Ignore = append(cfg.Advisories.Ignore, flagVals.Ignore...)
	if flagVals.JSON {
		format := string(config.FormatJSON)
		cfg.Output.Format = &format
	}
	if flagVals.NoTree {
		cfg.Output.ShowTree = boolPtr(false)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
