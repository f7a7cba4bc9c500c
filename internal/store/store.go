// Package store implements the Store (C3): a persistent, ordered map from
// Path to Primitive, backed by github.com/hashicorp/go-immutable-radix so
// that every commit shares structure with its predecessor instead of deep
// copying, and a transient builder mode for batched edits.
package store

import (
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/flowgrid/flowgrid/internal/logging"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/value"
)

// Store is an immutable snapshot: Path -> Primitive. The zero value is not
// valid; use New().
type Store struct {
	tree *iradix.Tree
	once sync.Once
	m    *sync.Mutex
	open bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{tree: iradix.New()}
}

func keyOf(p path.Path) []byte {
	return []byte(p.String())
}

// Get returns the value at path, and whether it was present.
func (s *Store) Get(p path.Path) (value.Primitive, bool) {
	v, ok := s.tree.Get(keyOf(p))
	if !ok {
		return value.Primitive{}, false
	}
	return v.(value.Primitive), true
}

// Contains reports whether path exists in the store.
func (s *Store) Contains(p path.Path) bool {
	_, ok := s.tree.Get(keyOf(p))
	return ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return s.tree.Len()
}

// Walk iterates entries in lexicographic path order, the same order the
// diff algorithm relies on for its lock-step scan. Walking stops early if
// fn returns true.
func (s *Store) Walk(fn func(p path.Path, v value.Primitive) bool) {
	s.tree.Root().Walk(func(k []byte, v interface{}) bool {
		return fn(path.FromString(string(k)), v.(value.Primitive))
	})
}

// WalkPrefix iterates entries whose path lies strictly under p (not p
// itself), in lexicographic order. Containers that project a variable-
// shaped collection onto the store (adjacency sets, text buffers) use
// this to rebuild their in-memory cache from a freshly loaded snapshot
// without knowing their element keys in advance.
func (s *Store) WalkPrefix(p path.Path, fn func(p path.Path, v value.Primitive) bool) {
	var prefix []byte
	if p.IsRoot() {
		prefix = []byte("/")
	} else {
		prefix = []byte(p.String() + "/")
	}
	s.tree.Root().WalkPrefix(prefix, func(k []byte, v interface{}) bool {
		return fn(path.FromString(string(k)), v.(value.Primitive))
	})
}

// Transient is a mutable builder over a Store. Exactly one Transient may
// be open per Store at a time; BeginTransient enforces this.
type Transient struct {
	store *Store
	txn   *iradix.Txn
}

// BeginTransient opens the transient builder. Calling it again before
// Commit/Discard on the same Store panics: this is the single-open-
// transient invariant from §4.2, a programmer error, not a recoverable
// validation failure.
func (s *Store) BeginTransient() *Transient {
	s.mu().Lock()
	defer s.mu().Unlock()
	if s.open {
		panic("store: transient already open for this Store")
	}
	s.open = true
	return &Transient{store: s, txn: s.tree.Txn()}
}

// mu lazily attaches a mutex; Store's exported surface stays value-like
// (New() returns *Store, but callers treat a *Store as an immutable
// snapshot they may hand to other goroutines freely once published).
func (s *Store) mu() *sync.Mutex {
	s.once.Do(func() { s.m = &sync.Mutex{} })
	return s.m
}

// Set records an Add or Replace at path. Transient-only.
func (t *Transient) Set(p path.Path, v value.Primitive) {
	t.txn.Insert(keyOf(p), v)
}

// Erase removes path. Transient-only; a no-op if absent.
func (t *Transient) Erase(p path.Path) {
	t.txn.Delete(keyOf(p))
}

// Get reads through the in-progress transient state.
func (t *Transient) Get(p path.Path) (value.Primitive, bool) {
	v, ok := t.txn.Get(keyOf(p))
	if !ok {
		return value.Primitive{}, false
	}
	return v.(value.Primitive), true
}

// Contains reads through the in-progress transient state.
func (t *Transient) Contains(p path.Path) bool {
	_, ok := t.txn.Get(keyOf(p))
	return ok
}

// WalkPrefix iterates, through the in-progress transient state, entries
// whose path lies strictly under p. Mirrors Store.WalkPrefix so
// containers can rebuild their cache mid-batch (e.g. ActionLog replay,
// §4.6) the same way they do from a committed Store.
func (t *Transient) WalkPrefix(p path.Path, fn func(p path.Path, v value.Primitive) bool) {
	var prefix []byte
	if p.IsRoot() {
		prefix = []byte("/")
	} else {
		prefix = []byte(p.String() + "/")
	}
	t.txn.Root().WalkPrefix(prefix, func(k []byte, v interface{}) bool {
		return fn(path.FromString(string(k)), v.(value.Primitive))
	})
}

// Commit finalizes the transient, diffs against the pre-transient
// snapshot, publishes the new snapshot, and returns a Patch rooted at "/".
func (t *Transient) Commit() (*Store, Patch) {
	before := t.store
	after := &Store{tree: t.txn.Commit()}
	patch := CreatePatch(before, after, path.Root)

	before.mu().Lock()
	before.open = false
	before.mu().Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "commit")
	defer timer.Stop()
	logging.StoreDebug("commit: %d ops", len(patch.Ops))
	return after, patch
}

// CheckedCommit is like Commit, but if the resulting patch is empty, the
// transient simply closes without publishing a new snapshot: the returned
// Store is the unchanged pre-transient one.
func (t *Transient) CheckedCommit() (*Store, Patch) {
	after, patch := t.Commit()
	if patch.Empty() {
		return t.store, patch
	}
	return after, patch
}

// Discard abandons the transient's edits, leaving the pre-transient Store
// unchanged. Used by the ActionLog loader to abandon a gesture replay
// that fails to decode or apply.
func (t *Transient) Discard() {
	t.store.mu().Lock()
	t.store.open = false
	t.store.mu().Unlock()
}
