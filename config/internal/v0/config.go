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

package v0

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Version is the version of the configuration format. Only "0" (or empty) is supported.
	Version string `yaml:"version,omitempty"`

	Database   DatabaseConfig   `yaml:"database,omitempty"`
	Advisories AdvisoriesConfig `yaml:"advisories,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Yanked     YankedConfig     `yaml:"yanked,omitempty"`
}

type DatabaseConfig struct {
	// Path is the local directory of the advisory database. If not specified, "$CARGO_HOME/advisory-db" is used.
	Path *string `yaml:"path,omitempty"`
	// URL is the git URL of the advisory database. If not specified, the RustSec advisory database is used.
	URL *string `yaml:"url,omitempty"`
	// Fetch specifies whether the advisory database is downloaded before auditing. Defaults to true.
	Fetch *bool `yaml:"fetch,omitempty"`
	// Stale allows using a database that could not be refreshed instead of failing. Defaults to false.
	Stale *bool `yaml:"stale,omitempty"`
}

type AdvisoriesConfig struct {
	// Ignore is a list of advisory ID patterns that are never reported.
	Ignore []string `yaml:"ignore,omitempty"`
	// InformationalWarnings is the list of informational advisory kinds reported as warnings. If not specified,
	// "notice", "unmaintained" and "unsound" are reported.
	InformationalWarnings []string `yaml:"informational-warnings,omitempty"`
}

type OutputConfig struct {
	// Deny is the list of warning categories that cause the audit to fail: "warnings" (all), "unmaintained",
	// "unsound", "yanked" or "notice".
	Deny []string `yaml:"deny,omitempty"`
	// Format is either "terminal" (default) or "json".
	Format *string `yaml:"format,omitempty"`
	// Quiet suppresses informational status output.
	Quiet *bool `yaml:"quiet,omitempty"`
	// ShowTree specifies whether the inverse dependency tree of findings is printed. Defaults to true.
	ShowTree *bool `yaml:"show-tree,omitempty"`
	// Color is "auto" (default), "always" or "never".
	Color *string `yaml:"color,omitempty"`
}

type YankedConfig struct {
	// Enabled specifies whether yanked crates are reported as warnings. Defaults to true.
	Enabled *bool `yaml:"enabled,omitempty"`
	// IndexURL is the base URL of the sparse crates.io index.
	IndexURL *string `yaml:"index-url,omitempty"`
}

// UpgradeConfig verifies that the provided bytes are a valid v0 configuration. Because v0 is the only version, the
// input is returned unmodified.
func UpgradeConfig(cfgBytes []byte) ([]byte, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(cfgBytes, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal configuration as v0")
	}
	return cfgBytes, nil
}
