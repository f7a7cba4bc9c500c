package action

import (
	"fmt"

	"github.com/flowgrid/flowgrid/internal/logging"
	"github.com/flowgrid/flowgrid/internal/store"
)

// Handler is implemented by each component subtree that owns a namespace
// (Store, Windows, Style, TextBuffer, AudioGraph, ...). CanApply reports
// whether the action is currently valid (e.g. Redo when already at the
// newest record); Apply performs the state change against an open
// transient.
type Handler interface {
	CanApply(a Action) bool
	Apply(tx *store.Transient, a Action) error
}

// Registry routes actions to the Handler registered for their namespace,
// mirroring §4.3's "Routing matches on action namespace" dispatch.
type Registry struct {
	handlers  map[string]Handler
	shortcuts *ShortcutTable
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler), shortcuts: NewShortcutTable()}
}

// Register binds a namespace to its Handler. Registering the same
// namespace twice is a programmer error and panics.
func (r *Registry) Register(namespace string, h Handler) {
	if _, exists := r.handlers[namespace]; exists {
		panic(fmt.Sprintf("action: namespace %q already has a registered handler", namespace))
	}
	r.handlers[namespace] = h
}

// RegisterShortcut adds an action type's metadata to the process-wide
// shortcut table.
func (r *Registry) RegisterShortcut(meta Metadata) {
	r.shortcuts.Register(meta)
}

// Shortcuts returns the registry's shortcut table, for the per-frame key
// state scan.
func (r *Registry) Shortcuts() *ShortcutTable {
	return r.shortcuts
}

// CanApply reports whether a has a registered handler for its namespace
// and that handler currently accepts it. An unrouted namespace is always
// rejected.
func (r *Registry) CanApply(a Action) bool {
	h, ok := r.handlers[a.Namespace()]
	if !ok {
		return false
	}
	return h.CanApply(a)
}

// Apply routes a to its namespace's handler and applies it against tx.
// Callers (internal/queue's per-frame drain loop) are responsible for
// checking CanApply first and for batching savable vs non-savable actions
// per §4.3's mixing-is-fatal invariant.
func (r *Registry) Apply(tx *store.Transient, a Action) error {
	h, ok := r.handlers[a.Namespace()]
	if !ok {
		return fmt.Errorf("action: no handler registered for namespace %q (action %q)", a.Namespace(), a.Leaf())
	}
	if !h.CanApply(a) {
		return fmt.Errorf("action: %s.%s rejected by CanApply at path %q", a.Namespace(), a.Leaf(), a.TargetPath())
	}
	logging.ActionDebug("apply %s.%s at %s", a.Namespace(), a.Leaf(), a.TargetPath())
	return h.Apply(tx, a)
}
