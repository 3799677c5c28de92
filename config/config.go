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

package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/palantir/crateaudit/advisory"
	v0 "github.com/palantir/crateaudit/config/internal/v0"
	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/report"
)

const (
	DefaultDatabaseURL = "https://github.com/rustsec/advisory-db.git"
	DefaultIndexURL    = "https://index.crates.io/"
)

type AuditConfig v0.Config

type OutputConfig v0.OutputConfig

// Format is the format of the audit report.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatJSON     Format = "json"
)

// Param is the fully resolved configuration of an audit. It is immutable once created.
type Param struct {
	Database DatabaseParam
	Report   report.Settings
	Output   OutputParam
	Yanked   YankedParam
}

type DatabaseParam struct {
	// Path is the local directory that the advisory database is stored in.
	Path string
	// URL is the git URL that the advisory database is fetched from.
	URL   string
	Fetch bool
	Stale bool
}

type OutputParam struct {
	Format   Format
	Deny     []DenyOption
	Quiet    bool
	ShowTree bool
	Color    terminal.ColorMode
}

// DeniesWarnings returns true if the "warnings" deny option is set.
func (p OutputParam) DeniesWarnings() bool {
	for _, opt := range p.Deny {
		if opt == DenyWarnings {
			return true
		}
	}
	return false
}

type YankedParam struct {
	Enabled  bool
	IndexURL string
	// CacheDir is the local directory that index entries are cached in.
	CacheDir string
}

// UpgradeConfig upgrades the provided configuration bytes to the current configuration format.
func UpgradeConfig(cfgBytes []byte) ([]byte, error) {
	var versionCfg struct {
		Version string `yaml:"version"`
	}
	if err := yaml.Unmarshal(cfgBytes, &versionCfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal configuration version")
	}
	switch versionCfg.Version {
	case "", "0":
		return v0.UpgradeConfig(cfgBytes)
	default:
		return nil, errors.Errorf("unsupported configuration version: %s", versionCfg.Version)
	}
}

// LoadFromFile reads the configuration in cfgFile. If the file does not exist, an empty configuration is returned.
func LoadFromFile(cfgFile string) (AuditConfig, error) {
	cfgBytes, err := os.ReadFile(cfgFile)
	if os.IsNotExist(err) {
		return AuditConfig{}, nil
	}
	if err != nil {
		return AuditConfig{}, errors.Wrapf(err, "failed to read configuration file")
	}
	upgradedCfgBytes, err := UpgradeConfig(cfgBytes)
	if err != nil {
		return AuditConfig{}, errors.Wrapf(err, "failed to upgrade configuration")
	}

	var cfg AuditConfig
	if err := yaml.Unmarshal(upgradedCfgBytes, &cfg); err != nil {
		return AuditConfig{}, errors.Wrapf(err, "failed to unmarshal configuration")
	}
	return cfg, nil
}

// ToParam resolves the configuration into a Param, applying defaults for unspecified values.
func (cfg *AuditConfig) ToParam() (Param, error) {
	cargoHome, err := CargoHome()
	if err != nil {
		return Param{}, err
	}

	settings := report.DefaultSettings()
	if len(cfg.Advisories.Ignore) > 0 {
		settings.Ignore = cfg.Advisories.Ignore
	}
	if len(cfg.Advisories.InformationalWarnings) > 0 {
		settings.InformationalWarnings = nil
		for _, name := range cfg.Advisories.InformationalWarnings {
			informational, err := advisory.ParseInformational(name)
			if err != nil {
				return Param{}, errors.Wrapf(err, "invalid informational-warnings configuration")
			}
			settings.InformationalWarnings = append(settings.InformationalWarnings, informational)
		}
	}

	if err := settings.Validate(); err != nil {
		return Param{}, errors.Wrapf(err, "invalid advisories configuration")
	}

	outputParam, err := (*OutputConfig)(&cfg.Output).ToParam()
	if err != nil {
		return Param{}, err
	}

	return Param{
		Database: DatabaseParam{
			Path:  getConfigStringValue(cfg.Database.Path, filepath.Join(cargoHome, "advisory-db")),
			URL:   getConfigStringValue(cfg.Database.URL, DefaultDatabaseURL),
			Fetch: getConfigBoolValue(cfg.Database.Fetch, true),
			Stale: getConfigBoolValue(cfg.Database.Stale, false),
		},
		Report: settings,
		Output: outputParam,
		Yanked: YankedParam{
			Enabled:  getConfigBoolValue(cfg.Yanked.Enabled, true),
			IndexURL: getConfigStringValue(cfg.Yanked.IndexURL, DefaultIndexURL),
			CacheDir: filepath.Join(cargoHome, "registry", "index", "crateaudit"),
		},
	}, nil
}

func (cfg *OutputConfig) ToParam() (OutputParam, error) {
	deny, err := ParseDenyOptions(cfg.Deny)
	if err != nil {
		return OutputParam{}, err
	}

	format := Format(getConfigStringValue(cfg.Format, string(FormatTerminal)))
	if format != FormatTerminal && format != FormatJSON {
		return OutputParam{}, errors.Errorf("invalid output format %q: must be %q or %q", format, FormatTerminal, FormatJSON)
	}

	colorMode, err := terminal.ParseColorMode(getConfigStringValue(cfg.Color, string(terminal.ColorAuto)))
	if err != nil {
		return OutputParam{}, err
	}

	return OutputParam{
		Format:   format,
		Deny:     deny,
		Quiet:    getConfigBoolValue(cfg.Quiet, false),
		ShowTree: getConfigBoolValue(cfg.ShowTree, true),
		Color:    colorMode,
	}, nil
}

// CargoHome returns the value of $CARGO_HOME, which defaults to "~/.cargo".
func CargoHome() (string, error) {
	if cargoHome := os.Getenv("CARGO_HOME"); cargoHome != "" {
		return cargoHome, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrapf(err, "failed to determine home directory")
	}
	return filepath.Join(home, ".cargo"), nil
}

func getConfigStringValue(cfgVal *string, defaultVal string) string {
	if cfgVal != nil {
		return *cfgVal
	}
	return defaultVal
}

func getConfigBoolValue(cfgVal *bool, defaultVal bool) bool {
	if cfgVal != nil {
		return *cfgVal
	}
	return defaultVal
}
