package action

import (
	"testing"

	"github.com/flowgrid/flowgrid/internal/path"
)

type fakeAction struct {
	ns, leaf string
	target   path.Path
	meta     Metadata
}

func (a fakeAction) Namespace() string     { return a.ns }
func (a fakeAction) Leaf() string          { return a.leaf }
func (a fakeAction) TargetPath() path.Path { return a.target }
func (a fakeAction) Meta() Metadata        { return a.meta }

func TestMergeAdjacentNoMerge(t *testing.T) {
	a := fakeAction{ns: "Style", leaf: "SetTheme", meta: Metadata{Policy: NoMerge}}
	b := fakeAction{ns: "Style", leaf: "SetTheme", meta: Metadata{Policy: NoMerge}}
	_, _, ok := MergeAdjacent(a, b)
	if ok {
		t.Fatal("NoMerge actions must never merge")
	}
}

func TestMergeAdjacentMergeSameType(t *testing.T) {
	p := path.New("style", "scale")
	a := fakeAction{ns: "Style", leaf: "SetScale", target: p, meta: Metadata{Policy: Merge}}
	b := fakeAction{ns: "Style", leaf: "SetScale", target: p, meta: Metadata{Policy: Merge}}
	merged, cancel, ok := MergeAdjacent(a, b)
	if !ok || cancel || merged != Action(b) {
		t.Fatalf("Merge policy must collapse same-type actions to b, got merged=%v cancel=%v ok=%v", merged, cancel, ok)
	}
}

func TestMergeAdjacentMergeDifferentTypeRefuses(t *testing.T) {
	a := fakeAction{ns: "Style", leaf: "SetScale", meta: Metadata{Policy: Merge}}
	b := fakeAction{ns: "Style", leaf: "SetTheme", meta: Metadata{Policy: Merge}}
	_, _, ok := MergeAdjacent(a, b)
	if ok {
		t.Fatal("Merge policy must not collapse across different action types")
	}
}

func TestMergeAdjacentSamePathMerge(t *testing.T) {
	p1, p2 := path.New("graph", "1"), path.New("graph", "2")
	a := fakeAction{ns: "AudioGraph", leaf: "SetGain", target: p1, meta: Metadata{Policy: SamePathMerge}}
	b := fakeAction{ns: "AudioGraph", leaf: "SetGain", target: p1, meta: Metadata{Policy: SamePathMerge}}
	c := fakeAction{ns: "AudioGraph", leaf: "SetGain", target: p2, meta: Metadata{Policy: SamePathMerge}}

	if merged, _, ok := MergeAdjacent(a, b); !ok || merged != Action(b) {
		t.Fatal("SamePathMerge must collapse same-type, same-path actions")
	}
	if _, _, ok := MergeAdjacent(a, c); ok {
		t.Fatal("SamePathMerge must not collapse actions at different paths")
	}
}

// toggleAction mirrors ToggleValue/ToggleConnection's custom cancel-on-
// same-path merge policy (Open Question #1's resolution).
type toggleAction struct {
	fakeAction
}

func (t toggleAction) Merge(next Action) (Action, bool, bool) {
	o, ok := next.(toggleAction)
	if !ok || o.target != t.target {
		return nil, false, false
	}
	return nil, true, true
}

func TestMergeAdjacentCustomCancel(t *testing.T) {
	p := path.New("graph", "edge", "0-1")
	a := toggleAction{fakeAction{ns: "AudioGraph", leaf: "ToggleConnection", target: p, meta: Metadata{Policy: Custom}}}
	b := toggleAction{fakeAction{ns: "AudioGraph", leaf: "ToggleConnection", target: p, meta: Metadata{Policy: Custom}}}

	_, cancel, ok := MergeAdjacent(a, b)
	if !ok || !cancel {
		t.Fatal("two ToggleConnection actions on the same pair must cancel")
	}
}

func TestMergeGestureCollapsesAndCancels(t *testing.T) {
	p := path.New("style", "scale")
	other := path.New("graph", "edge", "0-1")

	scale1 := fakeAction{ns: "Style", leaf: "SetScale", target: p, meta: Metadata{Policy: SamePathMerge}}
	scale2 := fakeAction{ns: "Style", leaf: "SetScale", target: p, meta: Metadata{Policy: SamePathMerge}}
	toggleOn := toggleAction{fakeAction{ns: "AudioGraph", leaf: "ToggleConnection", target: other, meta: Metadata{Policy: Custom}}}
	toggleOff := toggleAction{fakeAction{ns: "AudioGraph", leaf: "ToggleConnection", target: other, meta: Metadata{Policy: Custom}}}

	gesture := []Action{scale1, scale2, toggleOn, toggleOff}
	merged := MergeGesture(gesture)

	if len(merged) != 1 {
		t.Fatalf("expected the two SetScale to collapse and the two ToggleConnection to cancel, leaving 1 action, got %d: %v", len(merged), merged)
	}
	if merged[0] != Action(scale2) {
		t.Fatalf("expected the surviving action to be the later SetScale, got %v", merged[0])
	}
}

func TestMergeGestureSingleAction(t *testing.T) {
	a := fakeAction{ns: "Store", leaf: "Save", meta: Metadata{Policy: NoMerge}}
	merged := MergeGesture([]Action{a})
	if len(merged) != 1 || merged[0] != Action(a) {
		t.Fatalf("a single-action gesture must pass through unchanged, got %v", merged)
	}
}
