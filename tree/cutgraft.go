// Splash
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package tree

import (
	"sort"

	"github.com/splash-engine/splash/value"
)

// Subtree is a detached Branch or Leaf, including all of its descendants,
// produced by CutBranch/CutLeaf and consumed by GraftBranch/GraftLeaf. It
// holds no reference back into the Tree it was cut from.
type Subtree struct {
	n *node
}

// IsLeaf reports whether the cut subtree is a single Leaf rather than a
// Branch with descendants.
func (s *Subtree) IsLeaf() bool { return s.n.isLeaf }

// CutBranch detaches the branch at path, along with its entire subtree, and
// returns it for transfer elsewhere (another path in this Tree, or into a
// different Tree entirely via GraftBranch). The cut itself emits a single
// RemoveBranch Seed; the reconstruction of whatever the subtree held is left
// to the graft side, which re-announces it as fresh AddBranch/AddLeaf/SetLeaf
// Seeds so a peer that only ever sees Seeds can still replay the move.
func (t *Tree) CutBranch(path string) (*Subtree, bool) {
	t.mu.Lock()
	sub, ok, notify := t.cut(path, false)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return sub, ok
}

// CutLeaf detaches the leaf at path and returns it for transfer elsewhere.
func (t *Tree) CutLeaf(path string) (*Subtree, bool) {
	t.mu.Lock()
	sub, ok, notify := t.cut(path, true)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return sub, ok
}

func (t *Tree) cut(path string, wantLeaf bool) (*Subtree, bool, func()) {
	parentParts, name, err := parentAndLeaf(path)
	if err != nil {
		t.logf("tree: %v", err)
		return nil, false, nil
	}
	parent, ok := t.walk(parentParts)
	if !ok || parent.isLeaf {
		return nil, false, nil
	}
	child, ok := parent.children[name]
	if !ok || child.isLeaf != wantLeaf {
		return nil, false, nil
	}
	delete(parent.children, name)
	t.clearCallbacksUnder(path)
	task := TaskRemoveBranch
	if wantLeaf {
		task = TaskRemoveLeaf
	}
	t.emit(task, path, value.Empty(), nowMs())
	child.parent = nil
	pPath := parentPath(path)
	return &Subtree{n: child}, true, func() { t.fireBranch(task, pPath, name) }
}

// GraftBranch inserts a previously cut Branch subtree at path, under the
// name given by the subtree's own last path component. It fails if sub is a
// Leaf, if the parent branch does not exist, or on a name collision. On
// success it emits an AddBranch/AddLeaf/SetLeaf Seed for every node in the
// grafted subtree (see emitSubtreeSeeds) -- without this, a peer that only
// replicates via Seeds would never see the grafted subtree arrive.
func (t *Tree) GraftBranch(parentPath string, sub *Subtree) bool {
	t.mu.Lock()
	ok, notify := t.graft(parentPath, sub, false)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

// GraftLeaf inserts a previously cut Leaf subtree at parentPath.
func (t *Tree) GraftLeaf(parentPath string, sub *Subtree) bool {
	t.mu.Lock()
	ok, notify := t.graft(parentPath, sub, true)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

func (t *Tree) graft(parentPathStr string, sub *Subtree, wantLeaf bool) (bool, func()) {
	if sub == nil || sub.n.isLeaf != wantLeaf {
		return false, nil
	}
	parts, err := splitPath(parentPathStr)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	parent, ok := t.walk(parts)
	if !ok || parent.isLeaf {
		return false, nil
	}
	if _, exists := parent.children[sub.n.name]; exists {
		return false, nil
	}
	sub.n.parent = parent
	parent.children[sub.n.name] = sub.n

	grafted := joinPath(append(append([]string(nil), parts...), sub.n.name))
	t.emitSubtreeSeeds(sub.n, grafted)

	task := TaskAddBranch
	if wantLeaf {
		task = TaskAddLeaf
	}
	return true, func() { t.fireBranch(task, parentPathStr, sub.n.name) }
}

// emitSubtreeSeeds walks a just-grafted subtree and emits the AddBranch (or
// AddLeaf+SetLeaf) Seeds needed to reconstruct it on a peer that only ever
// observes this Tree through its outbound Seed list -- satisfying the
// reconstruct-on-a-peer guarantee that a plain move would otherwise break.
func (t *Tree) emitSubtreeSeeds(n *node, path string) {
	if n.isLeaf {
		t.emit(TaskAddLeaf, path, value.Empty(), nowMs())
		t.emit(TaskSetLeaf, path, n.value, nowMs())
		return
	}
	t.emit(TaskAddBranch, path, value.Empty(), nowMs())
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.emitSubtreeSeeds(n.children[name], path+"/"+name)
	}
}
