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

	"github.com/palantir/pkg/signals"
	"github.com/spf13/cobra"

	"github.com/palantir/crateaudit/internal/cmdinternal"
	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/osv"
)

var osvCmd = &cobra.Command{
	Use:   "osv [flags] [output-dir]",
	Short: "Export the crate advisories of the database in the OSV format",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir := "."
		if len(args) == 1 {
			outputDir = args[0]
		}
		param, err := cmdinternal.ParamFromFlagVals(globalFlagVals(cmd.Flags()), cmdinternal.AuditFlagVals{})
		if err != nil {
			return err
		}

		ctx, cancel := signals.ContextWithShutdown(context.Background())
		defer cancel()

		stderr := terminal.NewWriter(cmd.ErrOrStderr(), param.Output.Color)
		db, err := loadDatabase(ctx, cmd, param)
		if err != nil {
			exitCode = 1
			return stderr.Error("failed to fetch the advisory database: %v", err)
		}

		var opts osv.Options
		if !param.Output.Quiet && terminal.IsTerminal(cmd.ErrOrStderr()) {
			opts.Progress = cmd.ErrOrStderr()
		}
		if err := osv.NewExporter(db).ExportAll(outputDir, opts, cmd.OutOrStdout()); err != nil {
			exitCode = 1
			return stderr.Error("failed to export to '%s': %v", outputDir, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(osvCmd)
}
