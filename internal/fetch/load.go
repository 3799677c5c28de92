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

package fetch

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/advisory"
	"github.com/palantir/crateaudit/config"
	"github.com/palantir/crateaudit/internal/terminal"
)

// LoadDatabase fetches the advisory database if param enables fetching and opens it. If the fetch fails and param
// allows a stale database, a warning is written and the existing local copy is used instead.
func LoadDatabase(ctx context.Context, f *Fetcher, param config.DatabaseParam, status *terminal.Writer) (*advisory.Database, error) {
	if param.Fetch {
		if err := status.Status("Fetching", "advisory database from `%s`", param.URL); err != nil {
			return nil, err
		}
		if err := f.Fetch(ctx, param.URL, param.Path); err != nil {
			if !param.Stale || !exists(param.Path) {
				return nil, errors.Wrapf(err, "failed to fetch advisory database")
			}
			if err := status.Warning("couldn't fetch advisory database: %v; using existing copy at %s", err, param.Path); err != nil {
				return nil, err
			}
		}
	}

	db, err := advisory.Open(param.Path)
	if err != nil {
		return nil, err
	}
	if err := status.Status("Loaded", "%d security advisories (from %s)", db.Len(), param.Path); err != nil {
		return nil, err
	}
	return db, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
