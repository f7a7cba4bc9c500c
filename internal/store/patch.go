package store

import (
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/value"
)

// OpType is one of the three patch operation kinds.
type OpType uint8

const (
	OpAdd OpType = iota
	OpRemove
	OpReplace
)

func (t OpType) String() string {
	switch t {
	case OpAdd:
		return "Add"
	case OpRemove:
		return "Remove"
	case OpReplace:
		return "Replace"
	}
	return "?"
}

// PatchOp is one entry of a Patch: Add carries Value, Remove carries Old,
// Replace carries both.
type PatchOp struct {
	Op    OpType
	Value value.Primitive
	Old   value.Primitive
}

// Patch is an ordered diff between two Store snapshots: a base Path and a
// map of (path relative to base) -> PatchOp. Patches are the only
// currency between Store and History (C7).
type Patch struct {
	Ops      map[path.Path]PatchOp
	BasePath path.Path
}

// Empty reports whether the patch carries no operations.
func (p Patch) Empty() bool {
	return len(p.Ops) == 0
}

// NewPatch returns an empty patch rooted at base.
func NewPatch(base path.Path) Patch {
	return Patch{Ops: map[path.Path]PatchOp{}, BasePath: base}
}

// CreatePatch diffs two snapshots in lock-step over their lexicographically
// sorted entries and returns a Patch whose op keys are relative to base.
// This mirrors upstream Store.cpp's CreatePatch, which runs
// immer::algorithm::diff over two persistent maps with added/removed/
// changed callbacks.
func CreatePatch(before, after *Store, base path.Path) Patch {
	patch := NewPatch(base)

	type entry struct {
		p path.Path
		v value.Primitive
	}
	var beforeEntries, afterEntries []entry
	before.Walk(func(p path.Path, v value.Primitive) bool {
		beforeEntries = append(beforeEntries, entry{p, v})
		return false
	})
	after.Walk(func(p path.Path, v value.Primitive) bool {
		afterEntries = append(afterEntries, entry{p, v})
		return false
	})

	i, j := 0, 0
	for i < len(beforeEntries) && j < len(afterEntries) {
		be, ae := beforeEntries[i], afterEntries[j]
		switch {
		case be.p.Less(ae.p):
			patch.Ops[be.p.RelativeTo(base)] = PatchOp{Op: OpRemove, Old: be.v}
			i++
		case ae.p.Less(be.p):
			patch.Ops[ae.p.RelativeTo(base)] = PatchOp{Op: OpAdd, Value: ae.v}
			j++
		default:
			if !be.v.Equal(ae.v) {
				patch.Ops[be.p.RelativeTo(base)] = PatchOp{Op: OpReplace, Value: ae.v, Old: be.v}
			}
			i++
			j++
		}
	}
	for ; i < len(beforeEntries); i++ {
		patch.Ops[beforeEntries[i].p.RelativeTo(base)] = PatchOp{Op: OpRemove, Old: beforeEntries[i].v}
	}
	for ; j < len(afterEntries); j++ {
		patch.Ops[afterEntries[j].p.RelativeTo(base)] = PatchOp{Op: OpAdd, Value: afterEntries[j].v}
	}
	return patch
}

// Inverse swaps Add<->Remove and Value<->Old on Replace, so applying
// Inverse(p) undoes p.
func (p Patch) Inverse() Patch {
	inv := NewPatch(p.BasePath)
	for path_, op := range p.Ops {
		switch op.Op {
		case OpAdd:
			inv.Ops[path_] = PatchOp{Op: OpRemove, Old: op.Value}
		case OpRemove:
			inv.Ops[path_] = PatchOp{Op: OpAdd, Value: op.Old}
		case OpReplace:
			inv.Ops[path_] = PatchOp{Op: OpReplace, Value: op.Old, Old: op.Value}
		}
	}
	return inv
}

// Apply applies a Patch to a Store by opening a transient, replaying each
// op, and committing. The caller is responsible for not already holding an
// open transient on s.
func Apply(s *Store, p Patch) *Store {
	t := s.BeginTransient()
	for rel, op := range p.Ops {
		full := p.BasePath.Append(rel.Segments()...)
		switch op.Op {
		case OpAdd, OpReplace:
			t.Set(full, op.Value)
		case OpRemove:
			t.Erase(full)
		}
	}
	after, _ := t.Commit()
	return after
}

// MergeOps merges two adjacent patches with equal base paths per the
// table in §4.5 of the design. Returns the merged patch; if the result is
// empty, the merged patch carries no ops (the "identity" case).
func MergeOps(a, b Patch) Patch {
	merged := NewPatch(a.BasePath)
	for p, op := range a.Ops {
		merged.Ops[p] = op
	}
	for p, bOp := range b.Ops {
		aOp, existed := merged.Ops[p]
		if !existed {
			merged.Ops[p] = bOp
			continue
		}
		switch {
		case aOp.Op == OpAdd && bOp.Op == OpAdd:
			// Add, Add(same value) -> Add (collapse); Add, Add(different) -> Add(b's value).
			// Both reduce to simply keeping b's Add; a "same value" Add,Add is a
			// no-op collapse of identical adds, which this also produces.
			merged.Ops[p] = PatchOp{Op: OpAdd, Value: bOp.Value}
		case aOp.Op == OpAdd && bOp.Op == OpRemove:
			delete(merged.Ops, p)
		case aOp.Op == OpAdd && bOp.Op == OpReplace:
			merged.Ops[p] = PatchOp{Op: OpAdd, Value: bOp.Value}
		case aOp.Op == OpRemove && bOp.Op == OpAdd:
			if aOp.Old.Equal(bOp.Value) {
				delete(merged.Ops, p)
			} else {
				merged.Ops[p] = PatchOp{Op: OpReplace, Value: bOp.Value, Old: aOp.Old}
			}
		case aOp.Op == OpRemove && bOp.Op == OpReplace:
			merged.Ops[p] = PatchOp{Op: OpRemove, Old: aOp.Old}
		case aOp.Op == OpReplace && bOp.Op == OpAdd:
			merged.Ops[p] = PatchOp{Op: OpReplace, Value: bOp.Value, Old: aOp.Old}
		case aOp.Op == OpReplace && bOp.Op == OpReplace:
			merged.Ops[p] = PatchOp{Op: OpReplace, Value: bOp.Value, Old: aOp.Old}
		case aOp.Op == OpReplace && bOp.Op == OpRemove:
			merged.Ops[p] = PatchOp{Op: OpRemove, Old: aOp.Old}
		default:
			merged.Ops[p] = bOp
		}
	}
	return merged
}
