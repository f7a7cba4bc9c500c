// Package component implements the Component tree (C4), Field (C5), and
// the Container kinds (C6) that project collections onto the Store.
package component

import (
	"fmt"
	"sync"

	"github.com/flowgrid/flowgrid/internal/logging"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
)

// MenuDescriptor is a component's optional menu placement: a menu label
// and a shortcut, both kept as plain strings.
type MenuDescriptor struct {
	Label    string
	Shortcut string
}

// WindowFlags is a bitmask of optional window presentation hints; the
// core never interprets these beyond carrying them for the UI layer.
type WindowFlags uint32

// Component is a node in the declarative state tree: a parent pointer, a
// path segment, a derived Path and Id, a display name, optional help
// text, an ordered child list, and optional menu/window metadata. The
// tree topology is static after construction; container *contents* are
// not part of this tree, they live in the Store (C6).
type Component struct {
	reg      *Registry
	parent   *Component
	segment  string
	path     path.Path
	id       path.Id
	name     string
	help     string
	menu     *MenuDescriptor
	flags    WindowFlags
	children []*Component

	// onDestroy, when set, erases this component's Store-resident state.
	// Plain structural components (most containers' parent group, e.g.
	// "/audio") leave this nil.
	onDestroy func(tx *store.Transient)
}

func (c *Component) ID() path.Id           { return c.id }
func (c *Component) Path() path.Path       { return c.path }
func (c *Component) Name() string          { return c.name }
func (c *Component) Help() string          { return c.help }
func (c *Component) Parent() *Component    { return c.parent }
func (c *Component) Children() []*Component { return c.children }
func (c *Component) Menu() *MenuDescriptor { return c.menu }
func (c *Component) Flags() WindowFlags    { return c.flags }

// SetMenu/SetFlags/SetHelp decorate a component after construction,
// mirroring the declarative macros upstream expand constructors into.
func (c *Component) SetMenu(m MenuDescriptor)    { c.menu = &m }
func (c *Component) SetFlags(f WindowFlags)      { c.flags = f }
func (c *Component) SetHelp(help string)         { c.help = help }

// Registry is the process-wide {Id -> *Component} and {Path -> Id}
// lookup table plus the change-listener index. It is constructed
// explicitly (not a package-level global) so tests and multiple
// concurrently-loaded projects never share state.
type Registry struct {
	mu        sync.Mutex
	byID      map[path.Id]*Component
	byPath    map[string]path.Id
	listeners map[path.Id][]func()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[path.Id]*Component),
		byPath:    make(map[string]path.Id),
		listeners: make(map[path.Id][]func()),
	}
}

// NewRoot constructs the parent-less root component.
func NewRoot(reg *Registry, name string) *Component {
	c := &Component{reg: reg, path: path.Root, id: path.RootId, name: name}
	reg.register(c)
	return c
}

// New constructs a child component under parent, registers it in both
// registries, and appends it to parent's child list. Constructing a
// second component at an existing path is a programmer error and
// panics, per §4.1's "failure modes".
func New(reg *Registry, parent *Component, segment, name string) *Component {
	label := path.Label(name, segment)
	id := path.HashChild(parent.id, label)
	p := parent.path.Append(segment)

	reg.mu.Lock()
	if _, exists := reg.byPath[p.String()]; exists {
		reg.mu.Unlock()
		panic(fmt.Sprintf("component: a component already exists at path %q", p))
	}
	reg.mu.Unlock()

	c := &Component{reg: reg, parent: parent, segment: segment, path: p, id: id, name: name}
	reg.register(c)
	parent.children = append(parent.children, c)
	logging.ComponentDebug("constructed %s (id=%d)", p, id)
	return c
}

func (r *Registry) register(c *Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.id] = c
	r.byPath[c.path.String()] = c.id
}

func (r *Registry) unregister(c *Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, c.id)
	delete(r.byPath, c.path.String())
	delete(r.listeners, c.id)
}

// ByID returns the component registered under id, if any.
func (r *Registry) ByID(id path.Id) (*Component, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	return c, ok
}

// ByPath returns the exact component at p if registered; otherwise the
// nearest registered ancestor whose path is a prefix of p and whose path
// length is at most 2 segments short of p's — this is what lets lookups
// for container elements (e.g. "/vec/0" or a matrix cell "/mat/0/0")
// resolve to the owning container component. An ancestor further than 2
// segments away is not considered a match.
func (r *Registry) ByPath(p path.Path) (*Component, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPath[p.String()]; ok {
		return r.byID[id], true
	}
	cur := p
	for !cur.IsRoot() {
		cur = cur.Parent()
		if id, ok := r.byPath[cur.String()]; ok {
			if p.Depth()-cur.Depth() <= 2 {
				return r.byID[id], true
			}
			return nil, false
		}
	}
	if id, ok := r.byPath["/"]; ok && p.Depth() <= 2 {
		return r.byID[id], true
	}
	return nil, false
}

// Destroy recursively destroys c's children first, invokes c's
// Store-erasing callback (if any) against tx, then removes c from both
// registries. Callers destroying a whole subtree call this once on the
// subtree root; children are handled by the recursion.
func (c *Component) Destroy(tx *store.Transient) {
	for _, child := range c.children {
		child.Destroy(tx)
	}
	if c.onDestroy != nil {
		c.onDestroy(tx)
	}
	c.reg.unregister(c)
	logging.ComponentDebug("destroyed %s", c.path)
}

// AddListener registers fn to run once per batch in which any component
// in the changed set rooted at id (see Registry.NotifyPatch) is touched.
// Returns an unregister function.
func (r *Registry) AddListener(id path.Id, fn func()) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[id] = append(r.listeners[id], fn)
	idx := len(r.listeners[id]) - 1
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		ls := r.listeners[id]
		if idx < len(ls) {
			ls[idx] = nil
		}
	}
}

// NotifyPatch resolves every path touched by a committed patch (rooted at
// basePath) to its owning component, walks each to the root collecting a
// changed-id set, and invokes every listener registered on any id in
// that set exactly once.
func (r *Registry) NotifyPatch(basePath path.Path, relPaths []path.Path) {
	changed := make(map[path.Id]bool)
	for _, rel := range relPaths {
		abs := basePath.Append(rel.Segments()...)
		c, ok := r.ByPath(abs)
		if !ok {
			continue
		}
		for cur := c; cur != nil; cur = cur.parent {
			changed[cur.id] = true
		}
	}
	if len(changed) == 0 {
		return
	}
	r.mu.Lock()
	var fns []func()
	for id := range changed {
		for _, fn := range r.listeners[id] {
			if fn != nil {
				fns = append(fns, fn)
			}
		}
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
