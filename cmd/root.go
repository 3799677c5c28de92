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
	"context"
	"io"
	"os"

	"github.com/palantir/pkg/cobracli"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/cmdinternal"
	"github.com/palantir/crateaudit/internal/fetch"
	"github.com/palantir/crateaudit/internal/terminal"
)

var (
	debugFlagVal      bool
	configFileFlagVal string
	dbPathFlagVal     string
	dbURLFlagVal      string
	noFetchFlagVal    bool
	staleFlagVal      bool
	quietFlagVal      bool
	colorFlagVal      string

	// exitCode is set by commands that complete but report a failing result.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "crateaudit",
	Short: "Audit Cargo.lock files for crates with security vulnerabilities",
}

func Execute() int {
	if code := cobracli.ExecuteWithDebugVarAndDefaultParams(rootCmd, &debugFlagVal); code != 0 {
		return code
	}
	return exitCode
}

func globalFlagVals(flags *pflag.FlagSet) cmdinternal.GlobalFlagVals {
	flagVals := cmdinternal.GlobalFlagVals{
		ConfigFile: configFileFlagVal,
		NoFetch:    noFetchFlagVal,
		Stale:      staleFlagVal,
		Quiet:      quietFlagVal,
	}
	if flags.Changed("db") {
		flagVals.DatabasePath = &dbPathFlagVal
	}
	if flags.Changed("url") {
		flagVals.DatabaseURL = &dbURLFlagVal
	}
	if flags.Changed("color") {
		flagVals.Color = &colorFlagVal
	}
	return flagVals
}

// loadDatabase fetches and opens the advisory database configured by param. Status output is suppressed in quiet
// mode and progress is only shown when stderr is a terminal.
func loadDatabase(ctx context.Context, cmd *cobra.Command, param config.Param) (*advisory.Database, error) {
	stderr := cmd.ErrOrStderr()
	fetcher := &fetch.Fetcher{}
	if param.Output.Quiet {
		stderr = io.Discard
	} else if terminal.IsTerminal(stderr) {
		fetcher.Progress = stderr
	}
	return fetch.LoadDatabase(ctx, fetcher, param.Database, terminal.NewWriter(stderr, param.Output.Color))
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlagVal, "debug", false, "run in debug mode (print full stack traces on failures and include other debugging output)")
	rootCmd.PersistentFlags().StringVar(&configFileFlagVal, "config", "audit.yml", "path to the crateaudit configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPathFlagVal, "db", "", "path to the local advisory database (default $CARGO_HOME/advisory-db)")
	rootCmd.PersistentFlags().StringVar(&dbURLFlagVal, "url", config.DefaultDatabaseURL, "URL of the advisory database git repository")
	rootCmd.PersistentFlags().BoolVarP(&noFetchFlagVal, "no-fetch", "n", false, "do not fetch the advisory database or query the crate index")
	rootCmd.PersistentFlags().BoolVar(&staleFlagVal, "stale", false, "allow a stale advisory database if it cannot be fetched")
	rootCmd.PersistentFlags().BoolVarP(&quietFlagVal, "quiet", "q", false, "suppress status output")
	rootCmd.PersistentFlags().StringVar(&colorFlagVal, "color", string(terminal.ColorAuto), "color output: auto, always or never")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logrus.SetOutput(os.Stderr)
		if debugFlagVal {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	}
}
