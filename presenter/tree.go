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

package presenter

import (
	"io"

	"github.com/pkg/errors"

	"github.com/palantir/crateaudit/internal/terminal"
	"github.com/palantir/crateaudit/lockfile"
)

// DependencyTree is a dependency graph that can look up the node of a package and render the tree rooted at a node.
// *lockfile.Tree implements this interface.
type DependencyTree interface {
	Node(id lockfile.PackageID) (lockfile.NodeIndex, bool)
	Render(w io.Writer, node lockfile.NodeIndex, direction lockfile.EdgeDirection) error
}

// printTree prints the inverse dependency tree of pkg. The tree of a given name and version is printed at most once
// per Presenter: the package is recorded as displayed even if tree output is disabled.
func (p *Presenter) printTree(c terminal.Color, pkg lockfile.Package, tree DependencyTree) error {
	dep := pkg.Dependency()
	if _, ok := p.displayed[dep]; ok {
		return nil
	}
	p.displayed[dep] = struct{}{}

	if !p.config.ShowTree {
		return nil
	}

	node, ok := tree.Node(pkg.ID())
	if !ok {
		return errors.Errorf("package %s not found in dependency tree", dep)
	}
	if err := p.stdout.Attr(c, "Dependency tree:", ""); err != nil {
		return err
	}
	if err := tree.Render(p.stdout.Underlying(), node, lockfile.Incoming); err != nil {
		return errors.Wrapf(err, "failed to render dependency tree of %s", dep)
	}
	return nil
}
