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

package osv

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/palantir/crateaudit/advisory"
)

type Options struct {
	// Progress is the writer that export progress is written to. No progress is shown if nil.
	Progress io.Writer
}

// Exporter writes the advisories of a database as OSV records.
type Exporter struct {
	db *advisory.Database
}

func NewExporter(db *advisory.Database) *Exporter {
	return &Exporter{
		db: db,
	}
}

// ExportAll writes one "<ID>.json" file to outputDir for every crate advisory that has not been withdrawn.
func (e *Exporter) ExportAll(outputDir string, opts Options, stdout io.Writer) error {
	var advisories []*advisory.Advisory
	for _, adv := range e.db.Advisories() {
		if adv.Withdrawn() || adv.Metadata.Collection == nil || *adv.Metadata.Collection != advisory.CollectionCrates {
			continue
		}
		advisories = append(advisories, adv)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create OSV output directory %s", outputDir)
	}

	displayDir := outputDir
	if wd, err := os.Getwd(); err == nil {
		if relPath, err := filepath.Rel(wd, outputDir); err == nil {
			displayDir = relPath
		}
	}
	_, _ = fmt.Fprintf(stdout, "Exporting %d advisories to %s\n", len(advisories), displayDir)

	start := time.Now()
	var bar *pb.ProgressBar
	if opts.Progress != nil {
		bar = pb.New(len(advisories))
		bar.Output = opts.Progress
		bar.SetMaxWidth(120)
		bar.Start()
	}
	for _, adv := range advisories {
		if err := e.export(adv, outputDir); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	elapsed := time.Since(start)
	_, _ = fmt.Fprintf(stdout, "Finished exporting %d advisories (%.3fs)\n", len(advisories), elapsed.Seconds())
	return nil
}

func (e *Exporter) export(adv *advisory.Advisory, outputDir string) error {
	record, err := NewRecord(adv)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal OSV record for %s", adv.ID())
	}
	outPath := filepath.Join(outputDir, string(adv.ID())+".json")
	if err := os.WriteFile(outPath, append(out, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed to write OSV file %s", outPath)
	}
	return nil
}
