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

// Package presenter prints audit reports and decides whether an audit fails.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/lockfile"
	"github.com/palantir/crateaudit/report"
)

// Presenter prints the findings of a report. Findings are written to stdout and status lines are written to stderr.
// A Presenter is not safe for concurrent use and should be created once per audit.
type Presenter struct {
	rawStdout io.Writer
	stdout    *terminal.Writer
	stderr    *terminal.Writer
	config    config.OutputParam

	denyWarningKinds warningKindSet
	displayed        map[lockfile.Dependency]struct{}
}

// New returns a presenter that writes reports to stdout and status lines to stderr using the output settings in cfg.
func New(stdout, stderr io.Writer, cfg config.OutputParam) *Presenter {
	return &Presenter{
		rawStdout:        stdout,
		stdout:           terminal.NewWriter(stdout, cfg.Color),
		stderr:           terminal.NewWriter(stderr, cfg.Color),
		config:           cfg,
		denyWarningKinds: denyWarningKinds(cfg.Deny),
		displayed:        make(map[lockfile.Dependency]struct{}),
	}
}

// BeforeReport prints the status line shown before a lockfile is audited.
func (p *Presenter) BeforeReport(path string, lf *lockfile.Lockfile) error {
	if p.config.Quiet {
		return nil
	}
	return p.stderr.Status("Scanning", "%s for vulnerabilities (%d crate dependencies)", path, len(lf.Packages))
}

// PrintReport prints the report generated for lf. If path is non-empty, the summary lines name it.
func (p *Presenter) PrintReport(r *report.Report, lf *lockfile.Lockfile, path string) error {
	if p.config.Format == config.FormatJSON {
		out, err := json.Marshal(r)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal JSON report")
		}
		if _, err := p.rawStdout.Write(out); err != nil {
			return errors.Wrapf(err, "failed to write JSON report")
		}
		return nil
	}

	tree, err := lf.DependencyTree()
	if err != nil {
		return errors.Wrapf(err, "invalid Cargo.lock dependency tree")
	}
	return p.printReport(r, tree, path)
}

// printReport prints every finding followed by the summary lines. The conditions for printing an error summary
// must match ShouldExitWithFailure.
func (p *Presenter) printReport(r *report.Report, tree DependencyTree, path string) error {
	for _, vuln := range r.Vulnerabilities.List {
		if err := p.printVulnerability(vuln, tree); err != nil {
			return err
		}
	}
	for _, kind := range report.WarningKinds() {
		for _, warning := range r.Warnings[kind] {
			if err := p.printWarning(warning, tree); err != nil {
				return err
			}
		}
	}

	if r.Vulnerabilities.Found {
		var msg string
		if r.Vulnerabilities.Count == 1 {
			msg = "1 vulnerability found"
		} else {
			msg = fmt.Sprintf("%d vulnerabilities found", r.Vulnerabilities.Count)
		}
		if err := p.stderr.Error("%s", withPath(msg+"!", msg, path)); err != nil {
			return err
		}
	}

	denied, allowed := p.countWarnings(r)
	if denied > 0 {
		msg := fmt.Sprintf("%d denied %s found", denied, warningWord(denied))
		if err := p.stderr.Error("%s", withPath(msg+"!", msg, path)); err != nil {
			return err
		}
	}
	if allowed > 0 {
		msg := fmt.Sprintf("%d allowed %s found", allowed, warningWord(allowed))
		if err := p.stderr.Warning("%s", withPath(msg, msg, path)); err != nil {
			return err
		}
	}
	return nil
}

func withPath(noPath, msg, path string) string {
	if path == "" {
		return noPath
	}
	return fmt.Sprintf("%s in %s", msg, path)
}

// ShouldExitWithFailure returns true if the report contains a vulnerability or a denied warning.
func (p *Presenter) ShouldExitWithFailure(r *report.Report) bool {
	if r.Vulnerabilities.Found {
		return true
	}
	denied, _ := p.countWarnings(r)
	return denied != 0
}

func (p *Presenter) printVulnerability(vuln report.Vulnerability, tree DependencyTree) error {
	attrs := []attr{
		{"Crate:    ", vuln.Package.Name},
		{"Version:  ", vuln.Package.Version.String()},
	}
	attrs = append(attrs, metadataAttrs(vuln.Advisory)...)
	if patched := vuln.Versions.PatchedStrings(); len(patched) == 0 {
		attrs = append(attrs, attr{"Solution: ", "No fixed upgrade is available!"})
	} else {
		attrs = append(attrs, attr{"Solution: ", "Upgrade to " + strings.Join(patched, " OR ")})
	}
	if err := p.printAttrs(terminal.Red, attrs); err != nil {
		return err
	}
	if err := p.printTree(terminal.Red, vuln.Package, tree); err != nil {
		return err
	}
	return p.stdout.Println("")
}

func (p *Presenter) printWarning(warning report.Warning, tree DependencyTree) error {
	c := warningColor(p.denyWarningKinds.contains(warning.Kind))

	attrs := []attr{
		{"Crate:    ", warning.Package.Name},
		{"Version:  ", warning.Package.Version.String()},
		{"Warning:  ", string(warning.Kind)},
	}
	if warning.Advisory != nil {
		attrs = append(attrs, metadataAttrs(*warning.Advisory)...)
	}
	if err := p.printAttrs(c, attrs); err != nil {
		return err
	}
	if err := p.printTree(c, warning.Package, tree); err != nil {
		return err
	}
	return p.stdout.Println("")
}

type attr struct {
	label   string
	content string
}

func metadataAttrs(metadata advisory.Metadata) []attr {
	attrs := []attr{
		{"Title:    ", metadata.Title},
		{"Date:     ", metadata.Date},
		{"ID:       ", string(metadata.ID)},
	}
	if url, ok := metadata.PreferredURL(); ok {
		attrs = append(attrs, attr{"URL:      ", url})
	}
	if metadata.CVSS != nil {
		attrs = append(attrs, attr{"Severity: ", metadata.CVSS.String()})
	}
	return attrs
}

func (p *Presenter) printAttrs(c terminal.Color, attrs []attr) error {
	for _, a := range attrs {
		if err := p.stdout.Attr(c, a.label, a.content); err != nil {
			return err
		}
	}
	return nil
}
