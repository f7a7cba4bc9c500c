package project

import (
	"github.com/flowgrid/flowgrid/internal/component"
	"github.com/flowgrid/flowgrid/internal/store"
)

// Tree is the concrete project-wide component tree (SPEC_FULL.md §C):
// /windows, /style, /audio, /graph hung off a single root. It is smaller
// than §C's list: there is no /editor (text buffer and 2-D breakpoint
// grid) and no /store group, /windows is a vector of window names rather
// than descriptor records, /style has no accent color, /audio holds only
// the sample rate and device error, and the routing matrix lives at
// /graph/routing.
type Tree struct {
	Root *component.Component

	Windows *WindowsTree
	Style   *StyleTree
	Audio   *AudioTree
	Graph   *GraphTree
}

// WindowsTree is the ordered list of currently open window names (§C's
// "/windows" ordered Vector).
type WindowsTree struct {
	group *component.Component
	Open  *component.Vector[string]
}

// StyleTree holds the scalar UI-style fields: theme name and font scale.
type StyleTree struct {
	group     *component.Component
	ThemeName *component.Field[string]
	FontScale *component.Field[float32]
}

// AudioTree holds the audio device's scalar configuration and its last
// reported device error, if any.
type AudioTree struct {
	group       *component.Component
	SampleRate  *component.Field[uint32]
	DeviceError *component.Field[string]
}

// GraphTree holds the node graph: which node-id pairs are connected, the
// navigation stack of recently focused nodes, and a dense routing-gain
// matrix addressed by node index. Node identity here is a plain node
// index cast to path.Id, not a Component id — graph nodes are audio
// entities, not components, so they carry no Component subtree of their
// own.
type GraphTree struct {
	group       *component.Component
	Connections *component.AdjacencySet
	Selected    *component.Stack[uint32]
	Routing     *component.Matrix[float32]
}

// BuildTree constructs the full component tree against tx, adopting any
// existing Store state at each path (a fresh project writes its
// defaults; a reloaded one keeps what's on disk), exactly as each
// Field/Container constructor already does.
func BuildTree(reg *component.Registry, tx *store.Transient) *Tree {
	root := component.NewRoot(reg, "FlowGrid")

	windowsGroup := component.New(reg, root, "windows", "Windows")
	windows := &WindowsTree{
		group: windowsGroup,
		Open:  component.NewVector[string](reg, windowsGroup, "open", "Open Windows", tx),
	}

	styleGroup := component.New(reg, root, "style", "Style")
	style := &StyleTree{
		group:     styleGroup,
		ThemeName: component.NewField(reg, styleGroup, "theme", "Theme", "dark", tx),
		FontScale: component.NewField(reg, styleGroup, "scale", "Font Scale", float32(1.0), tx),
	}

	audioGroup := component.New(reg, root, "audio", "Audio")
	audio := &AudioTree{
		group:       audioGroup,
		SampleRate:  component.NewField(reg, audioGroup, "sample_rate", "Sample Rate", uint32(48000), tx),
		DeviceError: component.NewField(reg, audioGroup, "device_error", "Device Error", "", tx),
	}

	graphGroup := component.New(reg, root, "graph", "Graph")
	graph := &GraphTree{
		group:       graphGroup,
		Connections: component.NewAdjacencySet(reg, graphGroup, "connections", "Connections", tx),
		Selected:    component.NewStack[uint32](reg, graphGroup, "selected", "Selected Nodes", tx),
		Routing:     component.NewMatrix[float32](reg, graphGroup, "routing", "Routing Matrix", tx),
	}

	return &Tree{Root: root, Windows: windows, Style: style, Audio: audio, Graph: graph}
}

// Refresh reloads every cached field/container from s, called once per
// frame after a commit (or after History.SetIndex/Undo/Redo installs a
// different snapshot wholesale).
func (t *Tree) Refresh(s *store.Store) {
	t.Windows.Open.Refresh(s)
	t.Style.ThemeName.Refresh(s)
	t.Style.FontScale.Refresh(s)
	t.Audio.SampleRate.Refresh(s)
	t.Audio.DeviceError.Refresh(s)
	t.Graph.Connections.Refresh(s)
	t.Graph.Selected.Refresh(s)
	t.Graph.Routing.Refresh(s)
}
