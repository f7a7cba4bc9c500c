package history

import (
	"testing"
	"time"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/component"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/value"
)

type fakeAction struct {
	ns, leaf string
	target   path.Path
	meta     action.Metadata
}

func (a fakeAction) Namespace() string     { return a.ns }
func (a fakeAction) Leaf() string          { return a.leaf }
func (a fakeAction) TargetPath() path.Path { return a.target }
func (a fakeAction) Meta() action.Metadata { return a.meta }

// toggleAction mirrors ToggleValue's custom cancel-on-same-path merge
// policy, same as internal/action's own test fixture.
type toggleAction struct {
	fakeAction
}

func (t toggleAction) Merge(next action.Action) (action.Action, bool, bool) {
	o, ok := next.(toggleAction)
	if !ok || o.target != t.target {
		return nil, false, false
	}
	return nil, true, true
}

func setBool(t *testing.T, s *store.Store, p path.Path, v bool) *store.Store {
	t.Helper()
	tx := s.BeginTransient()
	tx.Set(p, value.Bool(v))
	after, _ := tx.Commit()
	return after
}

func getBool(t *testing.T, s *store.Store, p path.Path) bool {
	t.Helper()
	v, ok := s.Get(p)
	if !ok {
		t.Fatalf("expected %s to be set", p)
	}
	b, _ := v.AsBool()
	return b
}

// Scenario 1 (§8): two back-to-back toggles of the same path, forced to
// finalize after the second, must cancel out entirely: no history entry,
// and the store value ends up exactly where it started.
func TestToggleCancelLeavesNoHistoryEntry(t *testing.T) {
	p := path.New("a", "x")
	reg := component.NewRegistry()
	s0 := setBool(t, store.New(), p, false)
	h := New(reg, s0)

	s1 := setBool(t, s0, p, true)
	h.RecordAction(toggleAction{fakeAction{ns: "Bool", leaf: "Toggle", target: p, meta: action.Metadata{Policy: action.Custom}}}, time.Unix(0, 0))

	s2 := setBool(t, s1, p, false)
	h.RecordAction(toggleAction{fakeAction{ns: "Bool", leaf: "Toggle", target: p, meta: action.Metadata{Policy: action.Custom}}}, time.Unix(0, 1))

	if h.MaybeFinalize(time.Unix(0, 1), 1.0, true, s2) {
		t.Fatal("a fully-cancelling gesture must not produce a history record")
	}
	if h.Size() != 1 {
		t.Fatalf("expected history size to remain 1, got %d", h.Size())
	}
	if getBool(t, s2, p) != getBool(t, s0, p) {
		t.Fatal("expected the toggled value to revert to its default after the cancelling pair")
	}
}

// Scenario 2 (§8): three SamePathMerge actions within one gesture window
// collapse to a single stored action once the gesture auto-finalizes
// after the window elapses.
func TestSamePathMergeCollapsesToOneStoredAction(t *testing.T) {
	p := path.New("gain")
	reg := component.NewRegistry()
	s0 := store.New()
	tx0 := s0.BeginTransient()
	tx0.Set(p, value.F32(0))
	s0, _ = tx0.Commit()
	h := New(reg, s0)

	meta := action.Metadata{Policy: action.SamePathMerge}
	mk := func(v float32) fakeAction {
		return fakeAction{ns: "Float", leaf: "Set", target: p, meta: meta}
	}

	cur := s0
	start := time.Unix(100, 0)
	for i, v := range []float32{0.1, 0.2, 0.3} {
		tx := cur.BeginTransient()
		tx.Set(p, value.F32(v))
		cur, _ = tx.Commit()
		h.RecordAction(mk(v), start.Add(time.Duration(i)*time.Millisecond))
	}

	// Not yet elapsed: no finalize.
	if h.MaybeFinalize(start.Add(50*time.Millisecond), 1.0, false, cur) {
		t.Fatal("gesture must not finalize before its window elapses")
	}
	if h.Size() != 1 {
		t.Fatal("gesture still open, history must not have grown")
	}

	// Past the window: finalize.
	if !h.MaybeFinalize(start.Add(2*time.Second), 1.0, false, cur) {
		t.Fatal("expected the gesture to auto-finalize once its window elapsed")
	}
	if h.Size() != 2 {
		t.Fatalf("expected history to grow by 1, got size %d", h.Size())
	}
	gesture := h.records[h.index].Gesture
	if len(gesture) != 1 {
		t.Fatalf("expected the three SamePathMerge actions to collapse to 1, got %d", len(gesture))
	}
	got, ok := gesture[0].Action.(fakeAction)
	if !ok || got.target != p {
		t.Fatalf("expected the surviving action to target %s, got %v", p, gesture[0].Action)
	}
	stored, _ := h.CurrentStore().Get(p)
	f, _ := stored.AsF32()
	if f != 0.3 {
		t.Fatalf("expected the stored gain to be the last set value 0.3, got %v", f)
	}
}

// Scenario 3 (§8): undoing in the middle of a drag empties the active
// gesture and reverts the live store to its pre-gesture value; Undo
// finalizes the open gesture first, so the net index after
// finalize-then-step-back lands back where the gesture started.
func TestUndoMidGestureRevertsToPreGestureValue(t *testing.T) {
	p := path.New("p")
	reg := component.NewRegistry()
	s0 := store.New()
	tx0 := s0.BeginTransient()
	tx0.Set(p, value.String("p0"))
	s0, _ = tx0.Commit()
	h := New(reg, s0)

	meta := action.Metadata{Policy: action.SamePathMerge}
	cur := s0
	for i, v := range []string{"p1", "p2"} {
		tx := cur.BeginTransient()
		tx.Set(p, value.String(v))
		cur, _ = tx.Commit()
		h.RecordAction(fakeAction{ns: "Vec2", leaf: "Set", target: p, meta: meta}, time.Unix(int64(i), 0))
	}

	startIndex := h.Index()
	result := h.Undo(cur)

	got, _ := result.Get(p)
	gotStr, _ := got.AsString()
	if gotStr != "p0" {
		t.Fatalf("expected Store[/p] to revert to its pre-gesture value p0, got %v", gotStr)
	}
	if h.Index() != startIndex {
		t.Fatalf("expected history index to be unchanged by an undo that lands back where the gesture started, got %d want %d", h.Index(), startIndex)
	}
	if len(h.activeGesture) != 0 {
		t.Fatal("expected the active gesture to be fully discarded")
	}
}

// apply;undo;redo==apply (§8's round-trip property).
func TestUndoRedoRoundTrip(t *testing.T) {
	p := path.New("gain")
	reg := component.NewRegistry()
	s0 := store.New()
	tx0 := s0.BeginTransient()
	tx0.Set(p, value.F32(0))
	s0, _ = tx0.Commit()
	h := New(reg, s0)

	tx1 := s0.BeginTransient()
	tx1.Set(p, value.F32(0.5))
	s1, _ := tx1.Commit()
	h.RecordAction(fakeAction{ns: "Float", leaf: "Set", target: p, meta: action.Metadata{Policy: action.SamePathMerge}}, time.Unix(1, 0))
	if !h.FinalizeGesture(s1) {
		t.Fatal("expected a genuine change to finalize into a history record")
	}
	applied := h.CurrentStore()

	undone := h.Undo(applied)
	if v, _ := undone.Get(p); mustF32(t, v) != 0 {
		t.Fatal("expected undo to revert to the pre-apply value")
	}

	redone := h.Redo()
	if v, _ := redone.Get(p); mustF32(t, v) != 0.5 {
		t.Fatal("expected redo to restore the applied value")
	}
	appliedV, _ := applied.Get(p)
	redoneV, _ := redone.Get(p)
	if mustF32(t, appliedV) != mustF32(t, redoneV) {
		t.Fatal("apply;undo;redo must equal apply")
	}
}

func mustF32(t *testing.T, v value.Primitive) float32 {
	t.Helper()
	f, ok := v.AsF32()
	if !ok {
		t.Fatal("expected an f32 primitive")
	}
	return f
}

func TestSetIndexNoOpAtSameIndex(t *testing.T) {
	reg := component.NewRegistry()
	s0 := store.New()
	h := New(reg, s0)
	if got := h.SetIndex(h.Index()); got != h.CurrentStore() {
		t.Fatal("SetIndex at the current index must be a no-op")
	}
}

func TestSetIndexOutOfRangeIsNoOp(t *testing.T) {
	reg := component.NewRegistry()
	h := New(reg, store.New())
	if got := h.SetIndex(5); got != h.CurrentStore() {
		t.Fatal("an out-of-range SetIndex must be a no-op")
	}
	if got := h.SetIndex(-1); got != h.CurrentStore() {
		t.Fatal("a negative SetIndex must be a no-op")
	}
}

func TestCanUndoRedoAndEmpty(t *testing.T) {
	reg := component.NewRegistry()
	h := New(reg, store.New())
	if !h.Empty() {
		t.Fatal("a freshly constructed history must be empty")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("a freshly constructed history can neither undo nor redo")
	}
	h.RecordAction(fakeAction{ns: "Store", leaf: "Noop", meta: action.Metadata{Policy: action.NoMerge}}, time.Unix(0, 0))
	if !h.CanUndo() {
		t.Fatal("an open gesture must always be undoable (by discard)")
	}
}
