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

// Package tree implements the synchronized, named parent/child hierarchy
// shared between a World and its Scenes: Branch and Leaf nodes addressed by
// POSIX-like paths, replicated via chronologically-merged Seeds.
package tree

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splash-engine/splash/value"
)

// nowMs is the wall-clock millisecond time (since the Unix epoch) Seeds are
// stamped with when no explicit timestamp is supplied.
func nowMs() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// BranchCallback observes structural changes (add/remove/rename) at the
// path it was registered against.
type BranchCallback func(task Task, path, name string)

// LeafCallback observes value changes at the leaf it was registered against.
type LeafCallback func(v value.Value, timestamp int64)

// node is a single Branch or Leaf. A Tree's root is always a Branch node
// with an empty name.
type node struct {
	name      string
	parent    *node
	isLeaf    bool
	children  map[string]*node // populated when !isLeaf
	value     value.Value      // populated when isLeaf
	timestamp int64            // populated when isLeaf
}

func newBranch(name string, parent *node) *node {
	return &node{name: name, parent: parent, children: make(map[string]*node)}
}

func newLeaf(name string, parent *node, v value.Value, timestamp int64) *node {
	return &node{name: name, parent: parent, isLeaf: true, value: v, timestamp: timestamp}
}

// Tree is a rooted hierarchy of Branch and Leaf nodes, replicated across
// processes by chronologically ordered Seeds.
type Tree struct {
	mu     sync.Mutex
	origin uuid.UUID
	root   *node

	seeds   []Seed // outbound, drained by GetSeedList
	pending []Seed // inbound, drained by ProcessQueue

	branchCb map[string][]BranchCallback
	leafCb   map[string][]LeafCallback

	// Logf, if set, receives a line for every malformed path or rejected
	// operation, matching the "fail silently to the caller, log to the
	// operator" pattern used throughout this codebase.
	Logf func(format string, v ...interface{})
}

// New builds an empty Tree with a fresh origin UUID.
func New() *Tree {
	return &Tree{
		origin:   uuid.New(),
		root:     newBranch("", nil),
		branchCb: make(map[string][]BranchCallback),
		leafCb:   make(map[string][]LeafCallback),
	}
}

// UUID returns this Tree's origin identity, embedded in every Seed it
// produces so that a peer replaying those Seeds back never echoes them.
func (t *Tree) UUID() uuid.UUID { return t.origin }

func (t *Tree) logf(format string, v ...interface{}) {
	if t.Logf != nil {
		t.Logf(format, v...)
	}
}

// walk resolves parts against root, returning the final node (leaf or
// branch) if the whole path exists.
func (t *Tree) walk(parts []string) (*node, bool) {
	cur := t.root
	for _, p := range parts {
		if cur.isLeaf {
			return nil, false
		}
		next, ok := cur.children[p]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ensureParentBranch walks parts, silently creating any missing
// intermediate branches, and returns the branch at that path. It fails if
// any path component along the way names an existing Leaf.
func (t *Tree) ensureParentBranch(parts []string) (*node, error) {
	cur := t.root
	for _, p := range parts {
		if cur.isLeaf {
			return nil, fmt.Errorf("tree: %q is a leaf, not a branch", p)
		}
		next, ok := cur.children[p]
		if !ok {
			next = newBranch(p, cur)
			cur.children[p] = next
		} else if next.isLeaf {
			return nil, fmt.Errorf("tree: %q is a leaf, not a branch", p)
		}
		cur = next
	}
	return cur, nil
}

func joinPath(parts []string) string {
	if len(parts) == 0 {
		return "/"
	}
	out := ""
	for _, p := range parts {
		out += "/" + p
	}
	return out
}

func (t *Tree) emit(task Task, path string, args value.Value, timestamp int64) {
	t.seeds = append(t.seeds, Seed{
		Task: task, Path: path, Args: args, Timestamp: timestamp, Origin: t.origin,
	})
}

// CreateBranch creates a branch at path, auto-creating any missing parent
// branches silently. It returns false (no Seed emitted) on a name collision
// with an existing Branch or Leaf at path.
func (t *Tree) CreateBranch(path string) bool {
	t.mu.Lock()
	ok, notify := t.createBranch(path, false)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

// createBranch mutates the tree and returns a notify closure to run once
// the caller has released t.mu, rather than firing callbacks itself -- a
// callback body is allowed to call back into this Tree (§5's "snapshot
// callbacks before dispatch" rule), which would deadlock against t.mu if
// fired while still held.
func (t *Tree) createBranch(path string, silent bool) (bool, func()) {
	parts, err := splitPath(path)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	if len(parts) == 0 {
		return false, nil // the root always exists
	}
	parentParts, name := parts[:len(parts)-1], parts[len(parts)-1]
	parent, err := t.ensureParentBranch(parentParts)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	if _, exists := parent.children[name]; exists {
		return false, nil // name collision: no seed
	}
	parent.children[name] = newBranch(name, parent)
	if !silent {
		t.emit(TaskAddBranch, path, value.Empty(), nowMs())
	}
	pPath := parentPath(path)
	return true, func() { t.fireBranch(TaskAddBranch, pPath, name) }
}

// CreateLeaf creates a leaf at path with the given initial value,
// auto-creating any missing parent branches silently. The new leaf's
// timestamp starts at 0, so the first SetLeaf on it is never stale.
func (t *Tree) CreateLeaf(path string, v value.Value) bool {
	t.mu.Lock()
	ok, notify := t.createLeaf(path, v, false)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

func (t *Tree) createLeaf(path string, v value.Value, silent bool) (bool, func()) {
	parentParts, name, err := parentAndLeaf(path)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	parent, err := t.ensureParentBranch(parentParts)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	if _, exists := parent.children[name]; exists {
		return false, nil
	}
	parent.children[name] = newLeaf(name, parent, v, 0)
	if !silent {
		t.emit(TaskAddLeaf, path, v, nowMs())
	}
	pPath := parentPath(path)
	return true, func() { t.fireBranch(TaskAddLeaf, pPath, name) }
}

// RemoveBranch removes a branch (and its whole subtree) at path. If silent
// is false, a RemoveBranch Seed is emitted; the parent's branch callbacks
// fire with RemoveBranch either way.
func (t *Tree) RemoveBranch(path string, silent bool) bool {
	t.mu.Lock()
	ok, notify := t.remove(path, false, silent, TaskRemoveBranch)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

// RemoveLeaf removes a leaf at path.
func (t *Tree) RemoveLeaf(path string, silent bool) bool {
	t.mu.Lock()
	ok, notify := t.remove(path, true, silent, TaskRemoveLeaf)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

func (t *Tree) remove(path string, wantLeaf bool, silent bool, task Task) (bool, func()) {
	parentParts, name, err := parentAndLeaf(path)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	parent, ok := t.walk(parentParts)
	if !ok || parent.isLeaf {
		return false, nil
	}
	child, ok := parent.children[name]
	if !ok || child.isLeaf != wantLeaf {
		return false, nil
	}
	delete(parent.children, name)
	t.clearCallbacksUnder(path)
	if !silent {
		t.emit(task, path, value.Empty(), nowMs())
	}
	pPath := parentPath(path)
	return true, func() { t.fireBranch(task, pPath, name) }
}

func (t *Tree) clearCallbacksUnder(path string) {
	delete(t.leafCb, path)
	delete(t.branchCb, path)
}

// RenameBranch renames the branch at path to newName. It is rejected if
// newName already exists in the parent.
func (t *Tree) RenameBranch(path, newName string) bool {
	t.mu.Lock()
	ok, notify := t.rename(path, newName, false, TaskRenameBranch)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

// RenameLeaf renames the leaf at path to newName.
func (t *Tree) RenameLeaf(path, newName string) bool {
	t.mu.Lock()
	ok, notify := t.rename(path, newName, true, TaskRenameLeaf)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

func (t *Tree) rename(path, newName string, wantLeaf bool, task Task) (bool, func()) {
	parentParts, name, err := parentAndLeaf(path)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	parent, ok := t.walk(parentParts)
	if !ok || parent.isLeaf {
		return false, nil
	}
	child, ok := parent.children[name]
	if !ok || child.isLeaf != wantLeaf {
		return false, nil
	}
	if _, exists := parent.children[newName]; exists {
		return false, nil // name collision in target
	}
	delete(parent.children, name)
	child.name = newName
	parent.children[newName] = child
	t.emit(task, path, value.String(newName), nowMs())
	pPath := parentPath(path)
	return true, func() { t.fireBranch(task, pPath, newName) }
}

// SetLeaf sets the value of the leaf at path. If timestamp is 0, the current
// time is used. An incoming timestamp older than the leaf's stored one is
// discarded (the leaf's value and timestamp are left untouched), per the
// monotonic-leaf-timestamp invariant.
func (t *Tree) SetLeaf(path string, v value.Value, timestamp int64) bool {
	t.mu.Lock()
	ok, notify := t.setLeaf(path, v, timestamp, false)
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
	return ok
}

func (t *Tree) setLeaf(path string, v value.Value, timestamp int64, silent bool) (bool, func()) {
	parts, err := splitPath(path)
	if err != nil {
		t.logf("tree: %v", err)
		return false, nil
	}
	n, ok := t.walk(parts)
	if !ok || !n.isLeaf {
		return false, nil
	}
	if timestamp == 0 {
		timestamp = nowMs()
	}
	if timestamp < n.timestamp {
		return false, nil // stale: silently discarded
	}
	n.value = v
	n.timestamp = timestamp
	if !silent {
		t.emit(TaskSetLeaf, path, v, timestamp)
	}
	return true, func() { t.fireLeaf(path, v, timestamp) }
}

// GetLeaf returns the current value and timestamp of the leaf at path.
func (t *Tree) GetLeaf(path string) (value.Value, int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts, err := splitPath(path)
	if err != nil {
		return value.Empty(), 0, false
	}
	n, ok := t.walk(parts)
	if !ok || !n.isLeaf {
		return value.Empty(), 0, false
	}
	return n.value, n.timestamp, true
}

// HasBranch reports whether path names an existing Branch.
func (t *Tree) HasBranch(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts, err := splitPath(path)
	if err != nil {
		return false
	}
	n, ok := t.walk(parts)
	return ok && !n.isLeaf
}

// HasLeaf reports whether path names an existing Leaf.
func (t *Tree) HasLeaf(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts, err := splitPath(path)
	if err != nil {
		return false
	}
	n, ok := t.walk(parts)
	return ok && n.isLeaf
}

// ChildNames returns the sorted names of the children of the branch at path.
func (t *Tree) ChildNames(path string) ([]string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	n, ok := t.walk(parts)
	if !ok || n.isLeaf {
		return nil, false
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, true
}

// RegisterBranchCallback registers cb to fire whenever AddBranch, AddLeaf,
// RemoveBranch or RemoveLeaf occurs directly under path. The branch at path
// need not exist yet: the callback is looked up by path string at fire
// time, so registering ahead of a branch's creation (a "pending"
// registration) works without any extra bookkeeping.
func (t *Tree) RegisterBranchCallback(path string, cb BranchCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.branchCb[path] = append(t.branchCb[path], cb)
}

// RegisterLeafCallback registers cb to fire whenever the leaf at path
// changes value.
func (t *Tree) RegisterLeafCallback(path string, cb LeafCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leafCb[path] = append(t.leafCb[path], cb)
}

// fireBranch and fireLeaf are called with t.mu already released (every
// caller defers the returned notify closure until after its own Unlock), so
// they lock for themselves -- but only long enough to snapshot the callback
// slice, per §5's "snapshot callbacks before dispatch" rule. A callback body
// that calls back into this same Tree (registering another callback, reading
// or writing a leaf) runs against an unlocked mutex and cannot deadlock.
func (t *Tree) fireBranch(task Task, parentPath, name string) {
	t.mu.Lock()
	cbs := append([]BranchCallback(nil), t.branchCb[parentPath]...)
	t.mu.Unlock()
	for _, cb := range cbs {
		cb(task, parentPath, name)
	}
}

func (t *Tree) fireLeaf(path string, v value.Value, timestamp int64) {
	t.mu.Lock()
	cbs := append([]LeafCallback(nil), t.leafCb[path]...)
	t.mu.Unlock()
	for _, cb := range cbs {
		cb(v, timestamp)
	}
}

func parentPath(path string) string {
	parts, _ := splitPath(path)
	if len(parts) <= 1 {
		return "/"
	}
	return joinPath(parts[:len(parts)-1])
}

// GetSeedList drains and returns every Seed accumulated since the last call.
func (t *Tree) GetSeedList() []Seed {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.seeds
	t.seeds = nil
	return out
}

// AddSeedsToQueue appends inbound Seeds to this Tree's pending queue. They
// are not applied until ProcessQueue runs.
func (t *Tree) AddSeedsToQueue(seeds []Seed) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, seeds...)
}

// ProcessQueue sorts the pending Seeds chronologically (a stable sort, so
// equal timestamps preserve arrival order) and applies them in that order,
// skipping any Seed whose Origin is this Tree's own UUID. If propagate is
// true, every applied Seed is re-emitted into this Tree's own outbound list
// so a third peer can receive it in turn. It returns the number of SetLeaf
// Seeds that were not applied (stale, i.e. older than the leaf already
// holds, or naming a path that is not an existing leaf);
// callers use this to decide whether to latch an error, per this system's
// "stale timestamps are not failures, but are worth surfacing in bulk" rule.
func (t *Tree) ProcessQueue(propagate bool) (dropped int) {
	t.mu.Lock()
	seeds := t.pending
	t.pending = nil
	t.mu.Unlock()

	sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].Timestamp < seeds[j].Timestamp })

	// Each Seed is applied under its own lock/unlock, with the resulting
	// notify fired only once t.mu is released -- a callback triggered by one
	// Seed (say, one that registers a new leaf callback) must be able to
	// observe the Tree mutated by the next Seed in the same batch.
	for _, s := range seeds {
		if s.Origin == t.origin {
			continue // echo suppression
		}
		t.mu.Lock()
		applied, notify := t.applyLocked(s)
		if applied && propagate {
			t.seeds = append(t.seeds, s)
		}
		t.mu.Unlock()
		if notify != nil {
			notify()
		}
		if !applied && s.Task == TaskSetLeaf {
			dropped++
		}
	}
	return dropped
}

// applyLocked applies a single inbound Seed. Caller must hold t.mu and must
// invoke the returned notify only after releasing it.
func (t *Tree) applyLocked(s Seed) (bool, func()) {
	switch s.Task {
	case TaskAddBranch:
		return t.createBranch(s.Path, true)
	case TaskAddLeaf:
		return t.createLeaf(s.Path, s.Args, true)
	case TaskRemoveBranch:
		return t.remove(s.Path, false, true, TaskRemoveBranch)
	case TaskRemoveLeaf:
		return t.remove(s.Path, true, true, TaskRemoveLeaf)
	case TaskRenameBranch:
		newName := s.Args.String()
		ok := t.renameSilent(s.Path, newName, false)
		if !ok {
			return false, nil
		}
		pPath := parentPath(s.Path)
		return true, func() { t.fireBranch(TaskRenameBranch, pPath, newName) }
	case TaskRenameLeaf:
		newName := s.Args.String()
		ok := t.renameSilent(s.Path, newName, true)
		if !ok {
			return false, nil
		}
		pPath := parentPath(s.Path)
		return true, func() { t.fireBranch(TaskRenameLeaf, pPath, newName) }
	case TaskSetLeaf:
		return t.setLeaf(s.Path, s.Args, s.Timestamp, true)
	default:
		return false, nil
	}
}

func (t *Tree) renameSilent(path, newName string, wantLeaf bool) bool {
	parentParts, name, err := parentAndLeaf(path)
	if err != nil {
		return false
	}
	parent, ok := t.walk(parentParts)
	if !ok || parent.isLeaf {
		return false
	}
	child, ok := parent.children[name]
	if !ok || child.isLeaf != wantLeaf {
		return false
	}
	if _, exists := parent.children[newName]; exists {
		return false
	}
	delete(parent.children, name)
	child.name = newName
	parent.children[newName] = child
	return true
}

// Snapshot walks the whole Tree under a lock and returns a nested
// map[string]interface{} suitable for a --debug structure dump: leaves
// become their value.Value, branches become nested maps keyed by child
// name.
func (t *Tree) Snapshot() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return snapshotBranch(t.root)
}

func snapshotBranch(n *node) map[string]interface{} {
	out := make(map[string]interface{}, len(n.children))
	for name, c := range n.children {
		if c.isLeaf {
			out[name] = c.value
			continue
		}
		out[name] = snapshotBranch(c)
	}
	return out
}

// Equal reports whether two Trees hold the same branches and leaves by name,
// with equal leaf values. Timestamps are metadata, not part of a Tree's
// identity, and are not compared.
func Equal(a, b *Tree) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	return nodesEqual(a.root, b.root)
}

func nodesEqual(a, b *node) bool {
	if a.isLeaf != b.isLeaf {
		return false
	}
	if a.isLeaf {
		return value.Equal(a.value, b.value)
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for name, ac := range a.children {
		bc, ok := b.children[name]
		if !ok || !nodesEqual(ac, bc) {
			return false
		}
	}
	return true
}
