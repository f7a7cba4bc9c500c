// Package action implements the Action protocol (C8): a tagged-variant
// description of a state-change intent, its static metadata, and the
// merge/dispatch machinery the history engine and action queue build on.
package action

import (
	"github.com/flowgrid/flowgrid/internal/path"
)

// MergePolicy selects how two adjacent actions of the same declared type
// combine when the gesture scanner (internal/history) folds a run of
// actions before committing them.
type MergePolicy uint8

const (
	// NoMerge actions never combine with a prior action.
	NoMerge MergePolicy = iota
	// Merge actions of the same type always collapse to the later one.
	Merge
	// SamePathMerge actions of the same type collapse to the later one
	// only when they target the same Path.
	SamePathMerge
	// Custom actions implement Merger themselves.
	Custom
)

func (p MergePolicy) String() string {
	switch p {
	case NoMerge:
		return "NoMerge"
	case Merge:
		return "Merge"
	case SamePathMerge:
		return "SamePathMerge"
	case Custom:
		return "Custom"
	}
	return "?"
}

// Metadata is the compile-time-declared information every action type
// carries: human name, menu placement, keyboard shortcut, whether it is
// eligible for undo/project persistence, its merge policy, and whether
// applying it forces the open gesture to finalize (bool toggles, graph
// connection toggles, Project Undo/Redo/Open* — Open Question #2).
type Metadata struct {
	Name          string
	MenuLabel     string
	Shortcut      Shortcut
	Savable       bool
	Policy        MergePolicy
	ForceFinalize bool
}

// Action is the interface every concrete action variant implements.
// Namespace/Leaf identify the action's type for dispatch and merge
// purposes (e.g. namespace "Store", leaf "Load"); TargetPath is the
// Component or Store entry the action addresses.
type Action interface {
	Namespace() string
	Leaf() string
	TargetPath() path.Path
	Meta() Metadata
}

// Merger is implemented by actions whose merge policy is Custom. Merge
// receives the next action in gesture order and returns either a merged
// replacement action (ok=true, cancel=false), a cancellation of both
// (ok=true, cancel=true), or refusal to merge (ok=false).
type Merger interface {
	Action
	Merge(next Action) (merged Action, cancel bool, ok bool)
}

// sameType reports whether a and b are the same declared action type.
func sameType(a, b Action) bool {
	return a.Namespace() == b.Namespace() && a.Leaf() == b.Leaf()
}

// MergeAdjacent attempts to combine two adjacent actions per a's declared
// merge policy, mirroring upstream Actions.cpp's Merge(StateAction,
// StateAction) dispatch. Returns:
//   - (nil, true, true) if both cancel out,
//   - (merged, false, true) if they collapse to a single action,
//   - (nil, false, false) if they cannot merge (caller emits a, restarts
//     scanning at b).
func MergeAdjacent(a, b Action) (merged Action, cancel bool, ok bool) {
	switch a.Meta().Policy {
	case NoMerge:
		return nil, false, false
	case Merge:
		if !sameType(a, b) {
			return nil, false, false
		}
		return b, false, true
	case SamePathMerge:
		if !sameType(a, b) || a.TargetPath() != b.TargetPath() {
			return nil, false, false
		}
		return b, false, true
	case Custom:
		m, ok := a.(Merger)
		if !ok {
			return nil, false, false
		}
		merged, cancel, mergeOk := m.Merge(b)
		return merged, cancel, mergeOk
	}
	return nil, false, false
}

// MergeGesture folds a left-to-right run of actions per §4.4's merge
// rules: for each pair (a, b), MergeAdjacent decides whether they cancel,
// collapse, or split. The result preserves relative order and is never
// longer than the input.
func MergeGesture(actions []Action) []Action {
	if len(actions) == 0 {
		return nil
	}
	out := make([]Action, 0, len(actions))
	cur := actions[0]
	for i := 1; i < len(actions); i++ {
		next := actions[i]
		merged, cancel, ok := MergeAdjacent(cur, next)
		switch {
		case ok && cancel:
			// Both drop out; resume scanning from the action after next.
			if i+1 < len(actions) {
				cur = actions[i+1]
				i++
			} else {
				return out
			}
		case ok:
			cur = merged
		default:
			out = append(out, cur)
			cur = next
		}
	}
	out = append(out, cur)
	return out
}
