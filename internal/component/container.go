package component

import (
	"fmt"
	"strconv"

	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/value"
)

// Vector is the ordered-vector container (C6): entries at
// "{path}/0", "{path}/1", ... contiguous and dense.
type Vector[T FieldValue] struct {
	*Component
	cached []T
}

// NewVector constructs an ordered vector and loads its current contents
// from tx (empty if none exist yet).
func NewVector[T FieldValue](reg *Registry, parent *Component, segment, name string, tx *store.Transient) *Vector[T] {
	c := New(reg, parent, segment, name)
	v := &Vector[T]{Component: c}
	v.Refresh(tx)
	v.onDestroy = v.eraseAll
	return v
}

func (v *Vector[T]) Len() int   { return len(v.cached) }
func (v *Vector[T]) At(i int) T { return v.cached[i] }
func (v *Vector[T]) All() []T   { return append([]T(nil), v.cached...) }

// Set replaces the vector's contents. When the new length is shorter
// than the cached length, trailing stale entries are erased so the
// store never carries dangling indices past the new end, mirroring
// upstream Store::Set's vector-trim behavior for ordered containers.
func (v *Vector[T]) Set(tx *store.Transient, items []T) {
	oldLen := len(v.cached)
	for i, it := range items {
		tx.Set(v.path.AppendIndex(i), toPrimitive(it))
	}
	for i := len(items); i < oldLen; i++ {
		tx.Erase(v.path.AppendIndex(i))
	}
	v.cached = append([]T(nil), items...)
}

// Refresh reloads the cache by scanning sequential indices until one is
// absent.
func (v *Vector[T]) Refresh(s storeReader) {
	v.cached = v.cached[:0]
	for i := 0; ; i++ {
		p, ok := s.Get(v.path.AppendIndex(i))
		if !ok {
			break
		}
		v.cached = append(v.cached, fromPrimitive[T](p))
	}
}

func (v *Vector[T]) eraseAll(tx *store.Transient) {
	for i := range v.cached {
		tx.Erase(v.path.AppendIndex(i))
	}
}

// Grid2D is the 2-D vector container (C6): entries at "{path}/i/j";
// unlike Matrix, inner rows may differ in length.
type Grid2D[T FieldValue] struct {
	*Component
	cached [][]T
}

func NewGrid2D[T FieldValue](reg *Registry, parent *Component, segment, name string, tx *store.Transient) *Grid2D[T] {
	c := New(reg, parent, segment, name)
	g := &Grid2D[T]{Component: c}
	g.Refresh(tx)
	g.onDestroy = g.eraseAll
	return g
}

func (g *Grid2D[T]) Rows() int    { return len(g.cached) }
func (g *Grid2D[T]) Row(i int) []T { return append([]T(nil), g.cached[i]...) }

func cellPath(base path.Path, i, j int) path.Path {
	return base.Append(strconv.Itoa(i), strconv.Itoa(j))
}

// Set replaces the grid's contents row by row, trimming any cells and
// rows left over from a previously larger shape.
func (g *Grid2D[T]) Set(tx *store.Transient, rows [][]T) {
	oldRows := g.cached
	for i, row := range rows {
		for j, v := range row {
			tx.Set(cellPath(g.path, i, j), toPrimitive(v))
		}
		if i < len(oldRows) {
			for j := len(row); j < len(oldRows[i]); j++ {
				tx.Erase(cellPath(g.path, i, j))
			}
		}
	}
	for i := len(rows); i < len(oldRows); i++ {
		for j := range oldRows[i] {
			tx.Erase(cellPath(g.path, i, j))
		}
	}
	g.cached = make([][]T, len(rows))
	for i, row := range rows {
		g.cached[i] = append([]T(nil), row...)
	}
}

func (g *Grid2D[T]) Refresh(s storeReader) {
	g.cached = nil
	for i := 0; ; i++ {
		var row []T
		for j := 0; ; j++ {
			p, ok := s.Get(cellPath(g.path, i, j))
			if !ok {
				break
			}
			row = append(row, fromPrimitive[T](p))
		}
		if len(row) == 0 {
			break
		}
		g.cached = append(g.cached, row)
	}
}

func (g *Grid2D[T]) eraseAll(tx *store.Transient) {
	for i, row := range g.cached {
		for j := range row {
			tx.Erase(cellPath(g.path, i, j))
		}
	}
}

// Matrix is the matrix container (C6): entries at "{path}/r/c", all rows
// the same length.
type Matrix[T FieldValue] struct {
	*Component
	cached [][]T
}

func NewMatrix[T FieldValue](reg *Registry, parent *Component, segment, name string, tx *store.Transient) *Matrix[T] {
	c := New(reg, parent, segment, name)
	m := &Matrix[T]{Component: c}
	m.Refresh(tx)
	m.onDestroy = m.eraseAll
	return m
}

func (m *Matrix[T]) Rows() int { return len(m.cached) }
func (m *Matrix[T]) Cols() int {
	if len(m.cached) == 0 {
		return 0
	}
	return len(m.cached[0])
}
func (m *Matrix[T]) At(r, c int) T { return m.cached[r][c] }

// Set replaces the matrix with data, which must be rectangular, trimming
// any rows/columns left over from a previously larger shape.
func (m *Matrix[T]) Set(tx *store.Transient, data [][]T) error {
	newCols := 0
	if len(data) > 0 {
		newCols = len(data[0])
	}
	for _, row := range data {
		if len(row) != newCols {
			return fmt.Errorf("component: matrix rows must share one width, got %d and %d", newCols, len(row))
		}
	}
	oldRows, oldCols := m.Rows(), m.Cols()
	for r, row := range data {
		for c, v := range row {
			tx.Set(cellPath(m.path, r, c), toPrimitive(v))
		}
	}
	for r := 0; r < len(data) && r < oldRows; r++ {
		for c := newCols; c < oldCols; c++ {
			tx.Erase(cellPath(m.path, r, c))
		}
	}
	for r := len(data); r < oldRows; r++ {
		for c := 0; c < oldCols; c++ {
			tx.Erase(cellPath(m.path, r, c))
		}
	}
	m.cached = make([][]T, len(data))
	for i, row := range data {
		m.cached[i] = append([]T(nil), row...)
	}
	return nil
}

func (m *Matrix[T]) Refresh(s storeReader) {
	m.cached = nil
	cols := -1
	for r := 0; ; r++ {
		var row []T
		limit := cols
		if limit < 0 {
			limit = 1 << 30
		}
		for c := 0; c < limit; c++ {
			p, ok := s.Get(cellPath(m.path, r, c))
			if !ok {
				break
			}
			row = append(row, fromPrimitive[T](p))
		}
		if len(row) == 0 {
			break
		}
		if cols < 0 {
			cols = len(row)
		}
		m.cached = append(m.cached, row)
	}
}

func (m *Matrix[T]) eraseAll(tx *store.Transient) {
	for r, row := range m.cached {
		for c := range row {
			tx.Erase(cellPath(m.path, r, c))
		}
	}
}

// Stack is the navigable-stack container (C6): a history-like ordered
// vector of pushed values plus a current index that Push and MoveTo
// maintain. Unlike Field, the current index is cached immediately on
// every Push/MoveTo rather than waiting for a Refresh against a
// committed snapshot: a stack's index is internal bookkeeping, not a
// value the UI reads directly off the Store.
type Stack[T FieldValue] struct {
	*Component
	entries   *Vector[T]
	indexPath path.Path
	current   int
}

func NewStack[T FieldValue](reg *Registry, parent *Component, segment, name string, tx *store.Transient) *Stack[T] {
	c := New(reg, parent, segment, name)
	s := &Stack[T]{Component: c, indexPath: c.path.Append("index")}
	s.entries = NewVector[T](reg, c, "entries", name+"Entries", tx)
	if p, ok := tx.Get(s.indexPath); ok {
		u, _ := p.AsU32()
		s.current = int(u)
	} else {
		tx.Set(s.indexPath, value.U32(0))
	}
	s.onDestroy = func(tx *store.Transient) { tx.Erase(s.indexPath) }
	return s
}

// Push appends v and makes it current.
func (s *Stack[T]) Push(tx *store.Transient, v T) {
	items := append(s.entries.All(), v)
	s.entries.Set(tx, items)
	s.current = len(items) - 1
	tx.Set(s.indexPath, value.U32(uint32(s.current)))
}

// MoveTo sets the current index, bounds-checked against the entry count.
func (s *Stack[T]) MoveTo(tx *store.Transient, idx int) error {
	if idx < 0 || idx >= s.entries.Len() {
		return fmt.Errorf("component: stack index %d out of range [0,%d)", idx, s.entries.Len())
	}
	s.current = idx
	tx.Set(s.indexPath, value.U32(uint32(idx)))
	return nil
}

// Current returns the value at the current index, or the zero value and
// false if the stack is empty.
func (s *Stack[T]) Current() (T, bool) {
	if s.entries.Len() == 0 || s.current >= s.entries.Len() {
		var zero T
		return zero, false
	}
	return s.entries.At(s.current), true
}

func (s *Stack[T]) Refresh(r storeReader) {
	s.entries.Refresh(r)
	if p, ok := r.Get(s.indexPath); ok {
		u, _ := p.AsU32()
		s.current = int(u)
	}
}

// Pair is a (source, destination) component-id edge in an AdjacencySet.
type Pair struct {
	Src, Dst path.Id
}

func pairSegment(p Pair) string {
	return fmt.Sprintf("%d-%d", uint32(p.Src), uint32(p.Dst))
}

// AdjacencySet is the adjacency-set container (C6): a set of (source,
// destination) Id pairs, store-backed as a present/absent bool entry per
// pair. Connect/Disconnect are idempotent, mirroring upstream
// Core/Container/AdjacencyList's plain idempotent connect/disconnect
// over a store-backed pair set.
type AdjacencySet struct {
	*Component
	cached map[Pair]bool
}

// prefixWalker is satisfied by both *store.Store and *store.Transient.
type prefixWalker interface {
	WalkPrefix(p path.Path, fn func(p path.Path, v value.Primitive) bool)
}

func NewAdjacencySet(reg *Registry, parent *Component, segment, name string, s prefixWalker) *AdjacencySet {
	c := New(reg, parent, segment, name)
	a := &AdjacencySet{Component: c, cached: make(map[Pair]bool)}
	if s != nil {
		a.Refresh(s)
	}
	a.onDestroy = a.eraseAll
	return a
}

// Connect records src->dst. A no-op if already connected.
func (a *AdjacencySet) Connect(tx *store.Transient, src, dst path.Id) {
	p := Pair{src, dst}
	tx.Set(a.path.Append(pairSegment(p)), value.Bool(true))
	a.cached[p] = true
}

// Disconnect removes src->dst. A no-op if already disconnected.
func (a *AdjacencySet) Disconnect(tx *store.Transient, src, dst path.Id) {
	p := Pair{src, dst}
	tx.Erase(a.path.Append(pairSegment(p)))
	delete(a.cached, p)
}

// Toggle connects if disconnected and vice versa, returning the new
// connection state.
func (a *AdjacencySet) Toggle(tx *store.Transient, src, dst path.Id) bool {
	if a.Connected(src, dst) {
		a.Disconnect(tx, src, dst)
		return false
	}
	a.Connect(tx, src, dst)
	return true
}

func (a *AdjacencySet) Connected(src, dst path.Id) bool {
	return a.cached[Pair{src, dst}]
}

// Pairs returns every connected pair, in no particular order.
func (a *AdjacencySet) Pairs() []Pair {
	out := make([]Pair, 0, len(a.cached))
	for p, on := range a.cached {
		if on {
			out = append(out, p)
		}
	}
	return out
}

func (a *AdjacencySet) Refresh(s prefixWalker) {
	a.cached = make(map[Pair]bool)
	s.WalkPrefix(a.path, func(p path.Path, v value.Primitive) bool {
		seg := p.Leaf()
		var src, dst uint32
		if n, err := fmt.Sscanf(seg, "%d-%d", &src, &dst); err == nil && n == 2 {
			if on, ok := v.AsBool(); ok && on {
				a.cached[Pair{path.Id(src), path.Id(dst)}] = true
			}
		}
		return false
	})
}

func (a *AdjacencySet) eraseAll(tx *store.Transient) {
	for p := range a.cached {
		tx.Erase(a.path.Append(pairSegment(p)))
	}
}
