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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/index"
	"github.com/palantir/crateaudit/internal/cmdinternal"
	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/lockfile"
	"github.com/palantir/crateaudit/presenter"
	"github.com/palantir/crateaudit/report"
)

// selfCrateName is the name that this program's own advisories are filed under.
const selfCrateName = "crateaudit"

var (
	auditCmd = &cobra.Command{
		Use:   "audit [flags]",
		Short: "Audit a Cargo.lock file for crates with security vulnerabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			param, err := cmdinternal.ParamFromFlagVals(globalFlagVals(cmd.Flags()), cmdinternal.AuditFlagVals{
				Deny:   auditDenyFlagVal,
				Ignore: auditIgnoreFlagVal,
				JSON:   auditJSONFlagVal,
				NoTree: auditNoTreeFlagVal,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signals.ContextWithShutdown(context.Background())
			defer cancel()

			failed, err := runAudit(ctx, cmd, param, auditFileFlagVal)
			if err != nil {
				return err
			}
			if failed {
				exitCode = 1
			}
			return nil
		},
	}

	auditFileFlagVal   string
	auditDenyFlagVal   []string
	auditIgnoreFlagVal []string
	auditJSONFlagVal   bool
	auditNoTreeFlagVal bool
)

// runAudit audits the lockfile at lockfilePath and prints the result. Returns true if the result should cause the
// program to exit with a failure.
func runAudit(ctx context.Context, cmd *cobra.Command, param config.Param, lockfilePath string) (bool, error) {
	db, err := loadDatabase(ctx, cmd, param)
	if err != nil {
		return false, err
	}
	lf, err := lockfile.Load(lockfilePath)
	if err != nil {
		return false, err
	}

	p := presenter.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), param.Output)
	if err := p.BeforeReport(lockfilePath, lf); err != nil {
		return false, err
	}

	r := report.Generate(db, lf, param.Report)
	if param.Yanked.Enabled {
		if err := addYankedWarnings(ctx, r, lf, param.Yanked); err != nil {
			if err := terminal.NewWriter(cmd.ErrOrStderr(), param.Output.Color).Error("couldn't check if the package is yanked: %v", err); err != nil {
				return false, err
			}
		}
	}
	if err := p.PrintReport(r, lf, ""); err != nil {
		return false, err
	}

	selfAdvisories := selfAdvisories(db)
	if param.Output.Format == config.FormatTerminal {
		if err := p.PrintSelfReport(selfAdvisories); err != nil {
			return false, err
		}
	}
	return p.ShouldExitWithFailure(r) || p.ShouldExitWithFailureDueToSelf(selfAdvisories), nil
}

func addYankedWarnings(ctx context.Context, r *report.Report, lf *lockfile.Lockfile, param config.YankedParam) error {
	client, err := index.New(param.IndexURL, param.CacheDir)
	if err != nil {
		return err
	}
	warnings, err := report.YankedWarnings(ctx, client, lf)
	if err != nil {
		return err
	}
	r.AddWarnings(warnings...)
	return nil
}

// selfAdvisories returns the advisories filed against the running version of this program. Development builds
// without a valid version are not checked.
func selfAdvisories(db *advisory.Database) []*advisory.Advisory {
	v, err := advisory.ParseVersion(Version)
	if err != nil {
		logrus.WithField("version", Version).Debug("skipping self-advisory check for unversioned build")
		return nil
	}
	return report.SelfAdvisories(db, selfCrateName, v)
}

func init() {
	auditCmd.Flags().StringVarP(&auditFileFlagVal, "file", "f", "Cargo.lock", "path to the Cargo.lock file to audit")
	auditCmd.Flags().StringSliceVar(&auditDenyFlagVal, "deny", nil, "exit with an error on warnings of the given kinds: warnings, unmaintained, unsound, yanked or notice")
	auditCmd.Flags().StringSliceVar(&auditIgnoreFlagVal, "ignore", nil, "advisory ID patterns to ignore")
	auditCmd.Flags().BoolVar(&auditJSONFlagVal, "json", false, "write the report as JSON")
	auditCmd.Flags().BoolVar(&auditNoTreeFlagVal, "no-tree", false, "do not print the dependency tree of affected crates")

	rootCmd.AddCommand(auditCmd)
}
