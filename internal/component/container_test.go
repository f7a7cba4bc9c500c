package component

import (
	"testing"

	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
)

func TestVectorSetAndTrim(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	v := NewVector[int32](reg, root, "windows", "Windows", tx)
	v.Set(tx, []int32{1, 2, 3})
	after, _ := tx.Commit()

	if !after.Contains(v.Path().AppendIndex(2)) {
		t.Fatal("expected index 2 to be set")
	}

	tx2 := after.BeginTransient()
	v.Set(tx2, []int32{9})
	after2, _ := tx2.Commit()

	if after2.Contains(v.Path().AppendIndex(1)) || after2.Contains(v.Path().AppendIndex(2)) {
		t.Fatal("shrinking the vector must trim trailing stale entries")
	}
	if v.Len() != 1 || v.At(0) != 9 {
		t.Fatalf("expected cache [9], got %v", v.All())
	}
}

func TestVectorRefreshFromStore(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	v := NewVector[string](reg, root, "tags", "Tags", tx)
	v.Set(tx, []string{"a", "b"})
	after, _ := tx.Commit()

	reg2 := NewRegistry()
	root2 := NewRoot(reg2, "App")
	tx2 := after.BeginTransient()
	v2 := NewVector[string](reg2, root2, "tags", "Tags", tx2)
	if v2.Len() != 2 || v2.At(0) != "a" || v2.At(1) != "b" {
		t.Fatalf("expected reconstructed vector to load [a b], got %v", v2.All())
	}
}

func TestMatrixSetRejectsRaggedRows(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	m := NewMatrix[float32](reg, root, "gains", "Gains", tx)
	err := m.Set(tx, [][]float32{{1, 2}, {3}})
	if err == nil {
		t.Fatal("expected an error setting ragged rows on a Matrix")
	}
}

func TestMatrixShrinkTrimsCells(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	m := NewMatrix[float32](reg, root, "gains", "Gains", tx)
	if err := m.Set(tx, [][]float32{{1, 2}, {3, 4}}); err != nil {
		t.Fatal(err)
	}
	after, _ := tx.Commit()

	tx2 := after.BeginTransient()
	if err := m.Set(tx2, [][]float32{{5}}); err != nil {
		t.Fatal(err)
	}
	after2, _ := tx2.Commit()

	for _, p := range []path.Path{
		m.Path().Append("0", "1"),
		m.Path().Append("1", "0"),
		m.Path().Append("1", "1"),
	} {
		if after2.Contains(p) {
			t.Fatalf("expected %s to be trimmed after shrinking the matrix", p)
		}
	}
	if !after2.Contains(m.Path().Append("0", "0")) {
		t.Fatal("expected the surviving cell to remain")
	}
}

func TestGrid2DRaggedRows(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	g := NewGrid2D[int32](reg, root, "breakpoints", "Breakpoints", tx)
	g.Set(tx, [][]int32{{1, 2, 3}, {4}})
	after, _ := tx.Commit()

	if g.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", g.Rows())
	}
	if !after.Contains(g.Path().Append("0", "2")) {
		t.Fatal("expected the longer row's entries to be present")
	}
	if after.Contains(g.Path().Append("1", "1")) {
		t.Fatal("the shorter row must not have a stray entry at column 1")
	}
}

func TestStackPushAndMoveTo(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	st := NewStack[int32](reg, root, "focus", "Focus", tx)
	st.Push(tx, 10)
	st.Push(tx, 20)
	st.Push(tx, 30)
	tx.Commit()

	cur, ok := st.Current()
	if !ok || cur != 30 {
		t.Fatalf("expected current to be the last pushed value 30, got %v %v", cur, ok)
	}

	tx2 := s.BeginTransient()
	if err := st.MoveTo(tx2, 0); err != nil {
		t.Fatal(err)
	}
	tx2.Commit()
	cur, ok = st.Current()
	if !ok || cur != 10 {
		t.Fatalf("expected MoveTo(0) to select the first pushed value, got %v %v", cur, ok)
	}

	tx3 := s.BeginTransient()
	if err := st.MoveTo(tx3, 99); err == nil {
		t.Fatal("expected an out-of-range MoveTo to fail")
	}
	tx3.Discard()
}

func TestAdjacencySetConnectToggleDisconnect(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	adj := NewAdjacencySet(reg, root, "graph", "Graph", nil)

	src, dst := path.Id(1), path.Id(2)
	adj.Connect(tx, src, dst)
	if !adj.Connected(src, dst) {
		t.Fatal("expected pair to be connected")
	}

	on := adj.Toggle(tx, src, dst)
	if on || adj.Connected(src, dst) {
		t.Fatal("Toggle on a connected pair must disconnect it")
	}

	on = adj.Toggle(tx, src, dst)
	if !on || !adj.Connected(src, dst) {
		t.Fatal("Toggle on a disconnected pair must reconnect it")
	}
	tx.Commit()
}

func TestAdjacencySetRefreshFromStore(t *testing.T) {
	reg := NewRegistry()
	root := NewRoot(reg, "App")
	s := store.New()
	tx := s.BeginTransient()
	adj := NewAdjacencySet(reg, root, "graph", "Graph", nil)
	adj.Connect(tx, 1, 2)
	adj.Connect(tx, 3, 4)
	after, _ := tx.Commit()

	reg2 := NewRegistry()
	root2 := NewRoot(reg2, "App")
	adj2 := NewAdjacencySet(reg2, root2, "graph", "Graph", after)
	if len(adj2.Pairs()) != 2 {
		t.Fatalf("expected 2 pairs reloaded from store, got %d", len(adj2.Pairs()))
	}
	if !adj2.Connected(1, 2) || !adj2.Connected(3, 4) {
		t.Fatal("expected both reloaded pairs to be connected")
	}
}
