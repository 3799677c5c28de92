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

// Package lockfile loads Cargo.lock files and builds the dependency graph of the resolved packages.
package lockfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Dependency identifies a resolved package by name and version. It is comparable and is used as a map key.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s %s", d.Name, d.Version)
}

// PackageID identifies a package of a lockfile exactly. Two packages may share a name and version if they come from
// different sources, such as a registry release and a git fork.
type PackageID struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source,omitempty"`
}

func (id PackageID) String() string {
	return fmt.Sprintf("%s %s", id.Name, id.Version)
}

// Dependency drops the source of the ID.
func (id PackageID) Dependency() Dependency {
	return Dependency{
		Name:    id.Name,
		Version: id.Version,
	}
}

// Package is a single resolved package of a lockfile.
type Package struct {
	Name         string          `json:"name"`
	Version      *semver.Version `json:"version"`
	Source       string          `json:"source,omitempty"`
	Checksum     string          `json:"checksum,omitempty"`
	Dependencies []PackageID     `json:"dependencies"`
}

// Dependency returns the name and version of the package.
func (p Package) Dependency() Dependency {
	return p.ID().Dependency()
}

// ID returns the exact identity of the package.
func (p Package) ID() PackageID {
	return PackageID{
		Name:    p.Name,
		Version: p.Version.Original(),
		Source:  p.Source,
	}
}

// Lockfile is a parsed Cargo.lock.
type Lockfile struct {
	Version  int       `json:"version"`
	Packages []Package `json:"packages"`
}

type lockfileTOML struct {
	Version  int `toml:"version"`
	Packages []struct {
		Name         string   `toml:"name"`
		Version      string   `toml:"version"`
		Source       string   `toml:"source"`
		Checksum     string   `toml:"checksum"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"package"`
}

// Load reads and parses the lockfile at path.
func Load(path string) (*Lockfile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lockfile %s", path)
	}
	lf, err := Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse lockfile %s", path)
	}
	return lf, nil
}

// Parse parses the content of a Cargo.lock. Dependency entries are resolved to the exact package they refer to.
func Parse(content []byte) (*Lockfile, error) {
	var raw lockfileTOML
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal lockfile")
	}

	lf := &Lockfile{
		Version: raw.Version,
	}
	byName := make(map[string][]PackageID)
	for _, rawPkg := range raw.Packages {
		version, err := semver.StrictNewVersion(rawPkg.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid version %q for package %s", rawPkg.Version, rawPkg.Name)
		}
		pkg := Package{
			Name:     rawPkg.Name,
			Version:  version,
			Source:   rawPkg.Source,
			Checksum: rawPkg.Checksum,
		}
		lf.Packages = append(lf.Packages, pkg)
		byName[rawPkg.Name] = append(byName[rawPkg.Name], pkg.ID())
	}

	for i, rawPkg := range raw.Packages {
		deps := make([]PackageID, 0, len(rawPkg.Dependencies))
		for _, rawDep := range rawPkg.Dependencies {
			dep, err := parseDependency(rawDep, byName)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid dependency of package %s %s", rawPkg.Name, rawPkg.Version)
			}
			deps = append(deps, dep)
		}
		lf.Packages[i].Dependencies = deps
	}
	return lf, nil
}

// parseDependency parses an entry of the form "name", "name version" or "name version (source)". Entries without a
// version must refer to the only package with that name and entries without a source to the only package with that
// name and version. An entry that names no package of the lockfile is returned as is.
func parseDependency(entry string, byName map[string][]PackageID) (PackageID, error) {
	fields := strings.Fields(entry)
	switch len(fields) {
	case 0:
		return PackageID{}, errors.Errorf("empty dependency entry")
	case 1:
		candidates := byName[fields[0]]
		if len(candidates) != 1 {
			return PackageID{}, errors.Errorf("dependency %q does not refer to exactly one package (found %d)", entry, len(candidates))
		}
		return candidates[0], nil
	case 2:
		var candidates []PackageID
		for _, id := range byName[fields[0]] {
			if id.Version == fields[1] {
				candidates = append(candidates, id)
			}
		}
		switch len(candidates) {
		case 0:
			return PackageID{Name: fields[0], Version: fields[1]}, nil
		case 1:
			return candidates[0], nil
		default:
			return PackageID{}, errors.Errorf("dependency %q does not refer to exactly one package (found %d)", entry, len(candidates))
		}
	default:
		source := strings.Join(fields[2:], " ")
		if !strings.HasPrefix(source, "(") || !strings.HasSuffix(source, ")") {
			return PackageID{}, errors.Errorf("invalid source in dependency %q", entry)
		}
		return PackageID{Name: fields[0], Version: fields[1], Source: source[1 : len(source)-1]}, nil
	}
}

// DependencyTree builds the dependency graph of the lockfile.
func (l *Lockfile) DependencyTree() (*Tree, error) {
	return newTree(l.Packages)
}
