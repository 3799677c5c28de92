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

package advisory

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Database is an immutable, loaded advisory database.
type Database struct {
	advisories []*Advisory
	byID       map[ID]*Advisory
	byPackage  map[string][]*Advisory
}

// NewDatabase creates a database from already-parsed advisories. Advisories are ordered by ID.
func NewDatabase(advisories ...*Advisory) *Database {
	db := &Database{
		advisories: append([]*Advisory(nil), advisories...),
		byID:       make(map[ID]*Advisory),
		byPackage:  make(map[string][]*Advisory),
	}
	sort.SliceStable(db.advisories, func(i, j int) bool {
		return db.advisories[i].ID() < db.advisories[j].ID()
	})
	for _, adv := range db.advisories {
		db.byID[adv.ID()] = adv
		if adv.Metadata.Collection != nil && *adv.Metadata.Collection == CollectionCrates {
			db.byPackage[adv.Metadata.Package] = append(db.byPackage[adv.Metadata.Package], adv)
		}
	}
	return db
}

// Open loads every advisory of the database checked out at dir. Advisories live at
// "<collection>/<package>/<ID>.md"; the collection is taken from the top-level directory and is left unset for
// directories other than "crates" and "rust".
func Open(dir string) (*Database, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open advisory database")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("advisory database path %s is not a directory", dir)
	}

	var advisories []*Advisory
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(relPath), "/")
		if len(parts) != 3 {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read advisory %s", relPath)
		}
		adv, err := Parse(content)
		if err != nil {
			return errors.Wrapf(err, "failed to parse advisory %s", relPath)
		}
		switch collection := Collection(parts[0]); collection {
		case CollectionCrates, CollectionRust:
			adv.Metadata.Collection = &collection
		}
		advisories = append(advisories, adv)
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to load advisory database from %s", dir)
	}

	logrus.WithFields(logrus.Fields{
		"path":       dir,
		"advisories": len(advisories),
	}).Debug("loaded advisory database")
	return NewDatabase(advisories...), nil
}

// Advisories returns all advisories ordered by ID.
func (db *Database) Advisories() []*Advisory {
	return db.advisories
}

// Len returns the number of advisories in the database.
func (db *Database) Len() int {
	return len(db.advisories)
}

// Get returns the advisory with the provided ID.
func (db *Database) Get(id ID) (*Advisory, bool) {
	adv, ok := db.byID[id]
	return adv, ok
}

// CrateAdvisories returns the crate-collection advisories for the named package.
func (db *Database) CrateAdvisories(pkg string) []*Advisory {
	return db.byPackage[pkg]
}
