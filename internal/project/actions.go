package project

import (
	"encoding/json"
	"fmt"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/value"
)

// The concrete action types below are the minimal domain vocabulary
// needed to exercise every merge policy and force-finalize case §8's
// scenarios describe, and to give bool/float Fields, 2-D points and the
// graph's AdjacencySet a savable, loggable action; the Stack and Matrix
// containers have no action of their own here. Grounded on original_source/src/FlowGrid/
// Actions.h's per-domain action structs (BoolActionType, StateAction's
// SetValue/ToggleValue) and, for AdjacencySet, Core/Container/
// AdjacencyList.cpp's Toggle.

// --- Bool.Toggle ---

// BoolToggle flips a bool Field. Its Custom merge policy cancels two
// adjacent toggles of the same path (Open Question #1/#2: toggles also
// always force-finalize).
type BoolToggle struct {
	Target path.Path
}

func (a BoolToggle) Namespace() string     { return "Bool" }
func (a BoolToggle) Leaf() string          { return "Toggle" }
func (a BoolToggle) TargetPath() path.Path { return a.Target }
func (a BoolToggle) Meta() action.Metadata {
	return action.Metadata{Name: "Toggle", Savable: true, Policy: action.Custom, ForceFinalize: true}
}
func (a BoolToggle) Merge(next action.Action) (action.Action, bool, bool) {
	o, ok := next.(BoolToggle)
	if !ok || o.Target != a.Target {
		return nil, false, false
	}
	return nil, true, true
}
func (a BoolToggle) EncodePayload() (json.RawMessage, error) { return nil, nil }

func decodeBoolToggle(target path.Path, _ json.RawMessage) (action.Action, error) {
	return BoolToggle{Target: target}, nil
}

type boolToggleHandler struct{}

func (boolToggleHandler) CanApply(a action.Action) bool { return true }
func (boolToggleHandler) Apply(tx *store.Transient, a action.Action) error {
	t, ok := a.(BoolToggle)
	if !ok {
		return fmt.Errorf("project: boolToggleHandler got %T", a)
	}
	cur := false
	if p, ok := tx.Get(t.Target); ok {
		cur, _ = p.AsBool()
	}
	tx.Set(t.Target, value.Bool(!cur))
	return nil
}

// --- Float.Set ---

// FloatSet writes an f32 to a Field, merging adjacent same-path sets
// into the last one (a slider drag), per SamePathMerge.
type FloatSet struct {
	Target path.Path
	Value  float32
}

func (a FloatSet) Namespace() string     { return "Float" }
func (a FloatSet) Leaf() string          { return "Set" }
func (a FloatSet) TargetPath() path.Path { return a.Target }
func (a FloatSet) Meta() action.Metadata {
	return action.Metadata{Name: "Set", Savable: true, Policy: action.SamePathMerge}
}
func (a FloatSet) EncodePayload() (json.RawMessage, error) {
	return json.Marshal(struct {
		Value float32 `json:"value"`
	}{a.Value})
}

func decodeFloatSet(target path.Path, raw json.RawMessage) (action.Action, error) {
	var payload struct {
		Value float32 `json:"value"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("project: decoding Float.Set payload: %w", err)
	}
	return FloatSet{Target: target, Value: payload.Value}, nil
}

type floatSetHandler struct{}

func (floatSetHandler) CanApply(a action.Action) bool { return true }
func (floatSetHandler) Apply(tx *store.Transient, a action.Action) error {
	t, ok := a.(FloatSet)
	if !ok {
		return fmt.Errorf("project: floatSetHandler got %T", a)
	}
	tx.Set(t.Target, value.F32(t.Value))
	return nil
}

// --- Vec2.Set ---

// Vec2Set writes a pair of f32 fields (target/x, target/y), the
// component-tree representation of a 2-D point not otherwise storable
// as a single Primitive.
type Vec2Set struct {
	Target path.Path
	X, Y   float32
}

func (a Vec2Set) Namespace() string     { return "Vec2" }
func (a Vec2Set) Leaf() string          { return "Set" }
func (a Vec2Set) TargetPath() path.Path { return a.Target }
func (a Vec2Set) Meta() action.Metadata {
	return action.Metadata{Name: "Set", Savable: true, Policy: action.SamePathMerge}
}
func (a Vec2Set) EncodePayload() (json.RawMessage, error) {
	return json.Marshal(struct {
		X, Y float32
	}{a.X, a.Y})
}

func decodeVec2Set(target path.Path, raw json.RawMessage) (action.Action, error) {
	var payload struct{ X, Y float32 }
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("project: decoding Vec2.Set payload: %w", err)
	}
	return Vec2Set{Target: target, X: payload.X, Y: payload.Y}, nil
}

type vec2SetHandler struct{}

func (vec2SetHandler) CanApply(a action.Action) bool { return true }
func (vec2SetHandler) Apply(tx *store.Transient, a action.Action) error {
	t, ok := a.(Vec2Set)
	if !ok {
		return fmt.Errorf("project: vec2SetHandler got %T", a)
	}
	tx.Set(t.Target.Append("x"), value.F32(t.X))
	tx.Set(t.Target.Append("y"), value.F32(t.Y))
	return nil
}

// --- AudioGraph.ToggleConnection ---

// GraphToggleConnection flips one edge of the node graph's AdjacencySet.
// Its TargetPath is the root AdjacencySet path appended with the pair's
// own segment, so two toggles of the *same* edge (not just the same
// root) cancel, mirroring ToggleValue's same-path cancellation.
type GraphToggleConnection struct {
	Root     path.Path
	Src, Dst path.Id
}

func graphPairSegment(src, dst path.Id) string { return fmt.Sprintf("%d-%d", uint32(src), uint32(dst)) }

func (a GraphToggleConnection) Namespace() string { return "AudioGraph" }
func (a GraphToggleConnection) Leaf() string      { return "ToggleConnection" }
func (a GraphToggleConnection) TargetPath() path.Path {
	return a.Root.Append(graphPairSegment(a.Src, a.Dst))
}
func (a GraphToggleConnection) Meta() action.Metadata {
	return action.Metadata{Name: "Toggle Connection", Savable: true, Policy: action.Custom, ForceFinalize: true}
}
func (a GraphToggleConnection) Merge(next action.Action) (action.Action, bool, bool) {
	o, ok := next.(GraphToggleConnection)
	if !ok || o.Root != a.Root || o.Src != a.Src || o.Dst != a.Dst {
		return nil, false, false
	}
	return nil, true, true
}
// graphTogglePayload carries Root explicitly rather than relying on the
// wire entry's target-path slot: TargetPath() for this action is the
// root *plus* the pair segment (so same-edge cancellation keys off it
// correctly), which would make recovering a bare Root from that string
// error-prone to parse back out.
type graphTogglePayload struct {
	Root     string
	Src, Dst uint32
}

func (a GraphToggleConnection) EncodePayload() (json.RawMessage, error) {
	return json.Marshal(graphTogglePayload{Root: a.Root.String(), Src: uint32(a.Src), Dst: uint32(a.Dst)})
}

func decodeGraphToggleConnection(_ path.Path, raw json.RawMessage) (action.Action, error) {
	var payload graphTogglePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("project: decoding AudioGraph.ToggleConnection payload: %w", err)
	}
	return GraphToggleConnection{Root: path.FromString(payload.Root), Src: path.Id(payload.Src), Dst: path.Id(payload.Dst)}, nil
}

type graphToggleHandler struct {
	graph *GraphTree
}

func (h graphToggleHandler) CanApply(a action.Action) bool { return true }
func (h graphToggleHandler) Apply(tx *store.Transient, a action.Action) error {
	t, ok := a.(GraphToggleConnection)
	if !ok {
		return fmt.Errorf("project: graphToggleHandler got %T", a)
	}
	h.graph.Connections.Toggle(tx, t.Src, t.Dst)
	return nil
}

// RegisterCoreActions wires every concrete action type above into both
// the action dispatch registry (for live application) and the action
// codec (for ActionLog persistence).
func RegisterCoreActions(areg *action.Registry, codec *ActionCodec, graph *GraphTree) {
	areg.Register("Bool", boolToggleHandler{})
	areg.Register("Float", floatSetHandler{})
	areg.Register("Vec2", vec2SetHandler{})
	areg.Register("AudioGraph", graphToggleHandler{graph: graph})

	areg.RegisterShortcut(BoolToggle{}.Meta())
	areg.RegisterShortcut(FloatSet{}.Meta())
	areg.RegisterShortcut(Vec2Set{}.Meta())
	areg.RegisterShortcut(GraphToggleConnection{}.Meta())

	codec.Register("Bool", "Toggle", decodeBoolToggle)
	codec.Register("Float", "Set", decodeFloatSet)
	codec.Register("Vec2", "Set", decodeVec2Set)
	codec.Register("AudioGraph", "ToggleConnection", decodeGraphToggleConnection)
}
