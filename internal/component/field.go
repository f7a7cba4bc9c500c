package component

import (
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/value"
)

// FieldValue is the set of Go types a Field may cache; it mirrors C2's
// Primitive tagged union alternatives one for one.
type FieldValue interface {
	bool | int32 | uint32 | float32 | string
}

func toPrimitive[T FieldValue](v T) value.Primitive {
	switch x := any(v).(type) {
	case bool:
		return value.Bool(x)
	case int32:
		return value.I32(x)
	case uint32:
		return value.U32(x)
	case float32:
		return value.F32(x)
	case string:
		return value.String(x)
	}
	panic("component: unreachable primitive type")
}

func fromPrimitive[T FieldValue](p value.Primitive) T {
	var zero T
	switch any(zero).(type) {
	case bool:
		v, _ := p.AsBool()
		return any(v).(T)
	case int32:
		v, _ := p.AsI32()
		return any(v).(T)
	case uint32:
		v, _ := p.AsU32()
		return any(v).(T)
	case float32:
		v, _ := p.AsF32()
		return any(v).(T)
	case string:
		v, _ := p.AsString()
		return any(v).(T)
	}
	panic("component: unreachable primitive type")
}

// storeReader is satisfied by both *store.Store and *store.Transient,
// letting Field/Container refresh logic read through either.
type storeReader interface {
	Get(p path.Path) (value.Primitive, bool)
}

// Field is a Component leaf caching a single primitive value of type T.
// Invariant: Get() equals the Store's value at Path() after every commit
// and every Refresh.
type Field[T FieldValue] struct {
	*Component
	cached T
}

// NewField constructs a field at parent/segment. If the path does not
// already exist in tx (a fresh project, or a component never persisted
// before), the constructor writes def as the initial Store entry; if it
// does exist (reloading into a freshly reconstructed tree), the field
// adopts the existing value instead of overwriting it.
func NewField[T FieldValue](reg *Registry, parent *Component, segment, name string, def T, tx *store.Transient) *Field[T] {
	c := New(reg, parent, segment, name)
	f := &Field[T]{Component: c, cached: def}
	if p, ok := tx.Get(c.path); ok {
		f.cached = fromPrimitive[T](p)
	} else {
		tx.Set(c.path, toPrimitive(def))
	}
	f.onDestroy = func(tx *store.Transient) { tx.Erase(f.path) }
	return f
}

// Get returns the field's cached value.
func (f *Field[T]) Get() T { return f.cached }

// Set writes v to the store through tx. The cache is not updated until
// Refresh is called against the committed snapshot — callers refresh
// after commit, mirroring the per-batch field-refresh step in §2's
// control flow.
func (f *Field[T]) Set(tx *store.Transient, v T) {
	tx.Set(f.path, toPrimitive(v))
}

// Refresh reloads the cache from s, which may be the committed Store or
// an in-progress Transient.
func (f *Field[T]) Refresh(s storeReader) {
	if p, ok := s.Get(f.path); ok {
		f.cached = fromPrimitive[T](p)
	}
}
