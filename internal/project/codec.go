package project

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/path"
)

// Encoder is implemented by concrete action types so ActionLog (.fla) can
// round-trip them: their namespace/leaf identify which factory decodes
// them, and EncodePayload supplies whatever extra fields (beyond the
// target path, which every action already carries) the type needs.
// Actions with no extra fields (e.g. a bare toggle) can return nil, nil.
type Encoder interface {
	action.Action
	EncodePayload() (json.RawMessage, error)
}

// actionWire is the self-describing per-entry JSON written inside a
// gesture's actions list: a namespace/leaf type tag plus an opaque
// payload, decoded back to a concrete action.Action by ActionCodec.
type actionWire struct {
	NS      string          `json:"ns"`
	Leaf    string          `json:"leaf"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ActionFactory reconstructs a concrete action.Action from its target
// path and decoded payload.
type ActionFactory func(target path.Path, payload json.RawMessage) (action.Action, error)

// ActionCodec is the (namespace, leaf)-keyed registry ActionLog replay
// uses to turn a serialized actionWire back into a concrete action.Action.
// There is no generic reflection-based decoder here because, unlike
// internal/value's closed Primitive variant, the set of concrete action
// types is open-ended and owned by this package and its callers.
type ActionCodec struct {
	mu        sync.Mutex
	factories map[string]ActionFactory
}

func NewActionCodec() *ActionCodec {
	return &ActionCodec{factories: make(map[string]ActionFactory)}
}

func codecKey(ns, leaf string) string { return ns + "." + leaf }

// Register binds a (namespace, leaf) pair to the factory that
// reconstructs it. Registering the same pair twice is a programmer error
// and panics, mirroring action.Registry.Register's duplicate-namespace
// panic.
func (c *ActionCodec) Register(ns, leaf string, f ActionFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := codecKey(ns, leaf)
	if _, exists := c.factories[k]; exists {
		panic(fmt.Sprintf("project: action codec already has a factory for %s.%s", ns, leaf))
	}
	c.factories[k] = f
}

// Encode produces the wire form for a, which must implement Encoder.
func (c *ActionCodec) Encode(a action.Action) (actionWire, error) {
	enc, ok := a.(Encoder)
	if !ok {
		return actionWire{}, fmt.Errorf("project: action %s.%s does not implement Encoder", a.Namespace(), a.Leaf())
	}
	payload, err := enc.EncodePayload()
	if err != nil {
		return actionWire{}, fmt.Errorf("project: encoding %s.%s: %w", a.Namespace(), a.Leaf(), err)
	}
	return actionWire{NS: a.Namespace(), Leaf: a.Leaf(), Payload: payload}, nil
}

// Decode reconstructs the action a wire entry describes.
func (c *ActionCodec) Decode(target path.Path, w actionWire) (action.Action, error) {
	c.mu.Lock()
	f, ok := c.factories[codecKey(w.NS, w.Leaf)]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("project: no action factory registered for %s.%s", w.NS, w.Leaf)
	}
	return f(target, w.Payload)
}

// actionPairJSON is one [path, actionWire] entry in a gesture's actions
// array, per §4.6's wire shape.
type actionPairJSON struct {
	Path string
	Wire actionWire
}

func (p actionPairJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.Path, p.Wire})
}

func (p *actionPairJSON) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.Path); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Wire)
}
