package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/queue"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/value"
)

// storeToMap flattens a Store to a comparable map for whole-snapshot
// round-trip assertions; value.Primitive defines Equal, which cmp.Diff
// picks up automatically.
func storeToMap(s *store.Store) map[string]value.Primitive {
	out := make(map[string]value.Primitive, s.Len())
	s.Walk(func(p path.Path, v value.Primitive) bool {
		out[p.String()] = v
		return false
	})
	return out
}

func newTestProject(t *testing.T) (*Project, string) {
	t.Helper()
	dir := t.TempDir()
	internal := filepath.Join(dir, InternalDirName)
	if err := os.MkdirAll(internal, 0755); err != nil {
		t.Fatal(err)
	}
	return NewProject(internal, 1.0), dir
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, dir := newTestProject(t)

	toggle := BoolToggle{Target: p.tree.Root.Path().Append("audio", "device_error_ack")}
	frame := queue.Frame{Entries: []queue.Entry{{Action: toggle, Timestamp: time.Now()}}}
	if err := p.ApplyFrame(frame); err != nil {
		t.Fatalf("ApplyFrame: %v", err)
	}
	if !p.HasChanges() {
		t.Fatal("expected hasChanges after a committed action")
	}

	fls := filepath.Join(dir, "proj.fls")
	if err := p.Save(fls); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.HasChanges() {
		t.Fatal("expected hasChanges to clear after save")
	}
	if p.CurrentPath() != fls {
		t.Fatalf("expected CurrentPath %s, got %s", fls, p.CurrentPath())
	}

	before := storeToMap(p.Store())

	if err := p.OpenEmpty(); err != nil {
		t.Fatalf("OpenEmpty: %v", err)
	}
	if err := p.Open(fls); err != nil {
		t.Fatalf("Open: %v", err)
	}
	after := storeToMap(p.Store())

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("expected load(save(P)) == P, diff (-before +after):\n%s", diff)
	}
}

func TestActionLogRoundTrip(t *testing.T) {
	p, dir := newTestProject(t)

	gain := p.tree.Root.Path().Append("style", "scale")
	actions := []float32{0.5, 0.75, 1.5}
	for i, v := range actions {
		e := queue.Entry{Action: FloatSet{Target: gain, Value: v}, Timestamp: time.Now()}
		if err := p.ApplyFrame(queue.Frame{Entries: []queue.Entry{e}}); err != nil {
			t.Fatalf("ApplyFrame %d: %v", i, err)
		}
	}
	// Force the gesture to finalize so it becomes a history record.
	p.mu.Lock()
	p.history.MaybeFinalize(time.Now(), p.gestureDurationSec, true, p.store)
	p.mu.Unlock()

	fla := filepath.Join(dir, "proj.fla")
	if err := p.Save(fla); err != nil {
		t.Fatalf("Save: %v", err)
	}

	expectIndex := p.history.Index()
	expect := storeToMap(p.Store())

	if err := p.OpenEmpty(); err != nil {
		t.Fatalf("OpenEmpty: %v", err)
	}
	if err := p.Open(fla); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if p.history.Index() != expectIndex {
		t.Fatalf("expected replayed history index %d, got %d", expectIndex, p.history.Index())
	}
	got := storeToMap(p.Store())
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("expected replayed store to match, diff (-want +got):\n%s", diff)
	}
	if v, ok := got[gain.String()]; !ok {
		t.Fatalf("expected %s present in replayed store", gain)
	} else if f, _ := v.AsF32(); f != 1.5 {
		t.Fatalf("expected replayed gain 1.5, got %v", f)
	}
}

func TestSaveCurrentRequiresPath(t *testing.T) {
	p, _ := newTestProject(t)
	if err := p.SaveCurrent(); err == nil {
		t.Fatal("expected SaveCurrent to fail with no current path")
	}
	if p.CanApply("SaveCurrent") {
		t.Fatal("SaveCurrent/ShowSaveDialog should require HasChanges")
	}
}

func TestOpenDefaultFallsBackToEmpty(t *testing.T) {
	p, _ := newTestProject(t)
	if err := p.OpenDefault(); err != nil {
		t.Fatalf("OpenDefault should fall back to empty when no default.fla exists: %v", err)
	}
	if p.CurrentPath() != "" {
		t.Fatal("the empty project must never be remembered as a current path")
	}
}
