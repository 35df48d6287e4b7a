// Package network implements the hierarchical module tree, typed gate
// graph, and delay/bandwidth/jitter channels that route messages between
// module instances (spec.md §4.D, §4.E, §4.F). Modules and gates are
// id-indexed — never pointer-linked — so that parent→child ownership stays
// strong while child→parent and gate→owner references stay weak, per the
// design note in spec.md §9 ("cyclic module/gate references → weak
// back-edges + id-indexed arenas"). Grounded on the teacher's
// sim/cluster/cluster.go instance map (instanceMap map[InstanceID]*Instance)
// generalized from a flat instance list to a real parent/child hierarchy.
package network

import (
	"fmt"
	"strings"

	"github.com/inference-sim/desim/kernel"
)

// moduleRecord is the arena entry for one module instance (spec.md §3
// "Module Instance"). Parent is an owning strong reference held by the
// arena map key of the parent id; Children/Parent fields here store only
// ids (weak by construction — looking up a stale id simply misses).
type moduleRecord struct {
	id       kernel.ModuleID
	name     string
	path     string
	parent   kernel.ModuleID
	hasParent bool
	children []kernel.ModuleID
	poisoned bool
}

// Tree is the Module Tree (spec.md §4.D): a mapping from module id to
// context record and from dotted path to id, with path uniqueness enforced.
type Tree struct {
	byID   map[kernel.ModuleID]*moduleRecord
	byPath map[string]kernel.ModuleID
	nextID kernel.ModuleID
}

// NewTree returns an empty, ready-to-use Tree.
func NewTree() *Tree {
	return &Tree{
		byID:   make(map[kernel.ModuleID]*moduleRecord),
		byPath: make(map[string]kernel.ModuleID),
	}
}

// Insert creates a module named name under parent (hasParent=false for a
// root module) and returns its freshly assigned id. Returns an error if the
// resulting dotted path already exists (spec.md §4.J "duplicate paths ...
// are build-time errors").
func (t *Tree) Insert(parent kernel.ModuleID, hasParent bool, name string) (kernel.ModuleID, error) {
	path := name
	if hasParent {
		parentRec, ok := t.byID[parent]
		if !ok {
			return 0, fmt.Errorf("network: insert %q: parent module %d does not exist", name, parent)
		}
		path = parentRec.path + "." + name
	}
	if _, exists := t.byPath[path]; exists {
		return 0, fmt.Errorf("network: duplicate module path %q", path)
	}

	id := t.nextID
	t.nextID++
	rec := &moduleRecord{id: id, name: name, path: path, parent: parent, hasParent: hasParent}
	t.byID[id] = rec
	t.byPath[path] = id
	if hasParent {
		parentRec := t.byID[parent]
		parentRec.children = append(parentRec.children, id)
	}
	return id, nil
}

// Exists reports whether id is a live module.
func (t *Tree) Exists(id kernel.ModuleID) bool {
	_, ok := t.byID[id]
	return ok
}

// Path returns the dotted path of id.
func (t *Tree) Path(id kernel.ModuleID) (string, bool) {
	rec, ok := t.byID[id]
	if !ok {
		return "", false
	}
	return rec.path, true
}

// LookupByPath resolves a dotted path to a module id.
func (t *Tree) LookupByPath(path string) (kernel.ModuleID, bool) {
	id, ok := t.byPath[path]
	return id, ok
}

// Parent returns id's parent module, if any.
func (t *Tree) Parent(id kernel.ModuleID) (kernel.ModuleID, bool) {
	rec, ok := t.byID[id]
	if !ok || !rec.hasParent {
		return 0, false
	}
	return rec.parent, true
}

// Children returns a copy of id's direct children ids.
func (t *Tree) Children(id kernel.ModuleID) []kernel.ModuleID {
	rec, ok := t.byID[id]
	if !ok {
		return nil
	}
	out := make([]kernel.ModuleID, len(rec.children))
	copy(out, rec.children)
	return out
}

// IterSubtree returns id and every descendant, pre-order.
func (t *Tree) IterSubtree(id kernel.ModuleID) []kernel.ModuleID {
	rec, ok := t.byID[id]
	if !ok {
		return nil
	}
	out := []kernel.ModuleID{id}
	for _, child := range rec.children {
		out = append(out, t.IterSubtree(child)...)
	}
	return out
}

// PostOrderSubtree returns id and every descendant in post-order (every
// child before its parent) without mutating the tree — used to run
// at_sim_end callbacks on a subtree's members while their records (and thus
// Context.CurrentPath) are still resolvable, before RemoveSubtree deletes
// them.
func (t *Tree) PostOrderSubtree(id kernel.ModuleID) []kernel.ModuleID {
	rec, ok := t.byID[id]
	if !ok {
		return nil
	}
	var out []kernel.ModuleID
	for _, child := range rec.children {
		out = append(out, t.PostOrderSubtree(child)...)
	}
	return append(out, id)
}

// RemoveSubtree removes id and every descendant from the arena, post-order
// (every child removed before its parent), and returns the removed ids in
// that order. Post-order removal is what guarantees weak (id-keyed) back
// references resolve to "absent" before the owning (map-keyed) entries
// disappear — spec.md §5 "Teardown order guarantees weak references
// resolve to absent before owning references are dropped".
func (t *Tree) RemoveSubtree(id kernel.ModuleID) []kernel.ModuleID {
	rec, ok := t.byID[id]
	if !ok {
		return nil
	}
	var removed []kernel.ModuleID
	for _, child := range append([]kernel.ModuleID(nil), rec.children...) {
		removed = append(removed, t.RemoveSubtree(child)...)
	}
	removed = append(removed, id)
	if rec.hasParent {
		if parentRec, ok := t.byID[rec.parent]; ok {
			parentRec.children = removeID(parentRec.children, id)
		}
	}
	delete(t.byPath, rec.path)
	delete(t.byID, id)
	return removed
}

// MarkPoisoned flags id as poisoned (spec.md §7 "HandlerPanic"): it stays in
// the tree so gates remain resolvable, but its handler is skipped for
// subsequent events.
func (t *Tree) MarkPoisoned(id kernel.ModuleID) {
	if rec, ok := t.byID[id]; ok {
		rec.poisoned = true
	}
}

// IsPoisoned reports whether id has been marked poisoned.
func (t *Tree) IsPoisoned(id kernel.ModuleID) bool {
	rec, ok := t.byID[id]
	return ok && rec.poisoned
}

func removeID(ids []kernel.ModuleID, target kernel.ModuleID) []kernel.ModuleID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// SplitPath breaks a dotted path into its component names, kept here since
// Tree owns the path-format contract. The buildspec package does not call
// it; it splits paths with its own splitParentPath.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}
