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

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/affected"
	"github.com/palantir/crateaudit/index"
	"github.com/palantir/crateaudit/internal/cmdinternal"
)

var listAffectedVersionsCmd = &cobra.Command{
	Use:   "list-affected-versions [flags] [advisory-ids]",
	Short: "List the published versions of crates and whether advisories affect them",
	Long: `Lists every published version of the crate of each advisory and classifies it as vulnerable or OK.
If no advisory IDs are provided, all crate advisories of the database are processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		param, err := cmdinternal.ParamFromFlagVals(globalFlagVals(cmd.Flags()), cmdinternal.AuditFlagVals{})
		if err != nil {
			return err
		}

		ctx, cancel := signals.ContextWithShutdown(context.Background())
		defer cancel()

		db, err := loadDatabase(ctx, cmd, param)
		if err != nil {
			return err
		}
		client, err := index.New(param.Yanked.IndexURL, param.Yanked.CacheDir)
		if err != nil {
			return err
		}
		lister := affected.NewLister(db, client, param.Output.Color)
		if len(args) == 0 {
			return lister.ProcessAll(ctx, cmd.OutOrStdout())
		}
		ids := make([]advisory.ID, len(args))
		for i, arg := range args {
			ids[i] = advisory.ID(arg)
		}
		return lister.ProcessIDs(ctx, cmd.OutOrStdout(), ids)
	},
}

func init() {
	rootCmd.AddCommand(listAffectedVersionsCmd)
}
