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

package lockfile

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// NodeIndex is the index of a node in a Tree.
type NodeIndex int

// EdgeDirection selects which edges are followed when rendering a tree.
type EdgeDirection int

const (
	// Outgoing follows "depends on" edges.
	Outgoing EdgeDirection = iota
	// Incoming follows "depended on by" edges.
	Incoming
)

// Tree is the dependency graph of a lockfile.
type Tree struct {
	nodes    []PackageID
	index    map[PackageID]NodeIndex
	outgoing [][]NodeIndex
	incoming [][]NodeIndex
}

func newTree(pkgs []Package) (*Tree, error) {
	t := &Tree{
		index: make(map[PackageID]NodeIndex, len(pkgs)),
	}
	for _, pkg := range pkgs {
		id := pkg.ID()
		if _, ok := t.index[id]; ok {
			return nil, errors.Errorf("duplicate package %s (%s) in lockfile", id, id.Source)
		}
		t.index[id] = NodeIndex(len(t.nodes))
		t.nodes = append(t.nodes, id)
	}
	t.outgoing = make([][]NodeIndex, len(t.nodes))
	t.incoming = make([][]NodeIndex, len(t.nodes))
	for _, pkg := range pkgs {
		from := t.index[pkg.ID()]
		for _, dep := range pkg.Dependencies {
			to, ok := t.index[dep]
			if !ok {
				return nil, errors.Errorf("package %s depends on %s, which is not in the lockfile", pkg.ID(), dep)
			}
			t.outgoing[from] = append(t.outgoing[from], to)
			t.incoming[to] = append(t.incoming[to], from)
		}
	}
	for i := range t.nodes {
		t.sortEdges(t.outgoing[i])
		t.sortEdges(t.incoming[i])
	}
	return t, nil
}

func (t *Tree) sortEdges(edges []NodeIndex) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := t.nodes[edges[i]], t.nodes[edges[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		return a.Source < b.Source
	})
}

// Node returns the index of the node for the provided package.
func (t *Tree) Node(id PackageID) (NodeIndex, bool) {
	idx, ok := t.index[id]
	return idx, ok
}

// ID returns the package stored at the provided node.
func (t *Tree) ID(node NodeIndex) PackageID {
	return t.nodes[node]
}

// Edges returns the neighbours of node in the provided direction.
func (t *Tree) Edges(node NodeIndex, direction EdgeDirection) []NodeIndex {
	if direction == Incoming {
		return t.incoming[node]
	}
	return t.outgoing[node]
}

// Roots returns the nodes that no other package depends on.
func (t *Tree) Roots() []NodeIndex {
	var roots []NodeIndex
	for i := range t.nodes {
		if len(t.incoming[i]) == 0 {
			roots = append(roots, NodeIndex(i))
		}
	}
	return roots
}

// Render writes the tree rooted at node to w, following edges in the provided direction:
//
//	ammonia 2.0.0
//	└── html5ever 0.22.5
//	    └── myapp 0.1.0
//
// A node that is already on the path from the root is not visited again.
func (t *Tree) Render(w io.Writer, node NodeIndex, direction EdgeDirection) error {
	if _, err := fmt.Fprintln(w, t.nodes[node]); err != nil {
		return err
	}
	onPath := map[NodeIndex]struct{}{node: {}}
	return t.renderChildren(w, node, direction, "", onPath)
}

func (t *Tree) renderChildren(w io.Writer, node NodeIndex, direction EdgeDirection, prefix string, onPath map[NodeIndex]struct{}) error {
	var children []NodeIndex
	for _, child := range t.Edges(node, direction) {
		if _, ok := onPath[child]; ok {
			continue
		}
		children = append(children, child)
	}
	for i, child := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, t.nodes[child]); err != nil {
			return err
		}
		onPath[child] = struct{}{}
		if err := t.renderChildren(w, child, direction, prefix+indent, onPath); err != nil {
			return err
		}
		delete(onPath, child)
	}
	return nil
}
