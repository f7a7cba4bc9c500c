package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/component"
	"github.com/flowgrid/flowgrid/internal/history"
	"github.com/flowgrid/flowgrid/internal/logging"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/queue"
	"github.com/flowgrid/flowgrid/internal/store"
)

// ProjectAction is the Project/History namespace's navigation and
// persistence vocabulary: Undo, Redo, Open, OpenEmpty, OpenDefault,
// Save, SaveCurrent, SaveDefault, ShowOpenDialog, ShowSaveDialog. These
// are never committed through a Store transient (they are I/O and
// history-navigation side effects, not Store writes) and are never
// savable — Project intercepts them directly in ApplyFrame before the
// ordinary action.Registry dispatch runs, mirroring App.cpp's
// Project::ActionHandler special-casing of the same namespace.
type ProjectAction struct {
	Verb string
	Path string
}

func (a ProjectAction) Namespace() string     { return "Project" }
func (a ProjectAction) Leaf() string          { return a.Verb }
func (a ProjectAction) TargetPath() path.Path { return path.Root }
func (a ProjectAction) Meta() action.Metadata {
	force := a.Verb == "Undo" || a.Verb == "Redo" || strings.HasPrefix(a.Verb, "Open")
	return action.Metadata{Name: a.Verb, Savable: false, Policy: action.NoMerge, ForceFinalize: force}
}

// Project wires the Store, component Tree, action Registry/Codec, and
// History together into the single stateful object the rest of the
// application drives: ApplyFrame (the per-frame queue-drain loop, §2,
// §4.3) and the format-dispatching Open/Save family (§4.6).
type Project struct {
	mu sync.Mutex

	reg     *component.Registry
	actions *action.Registry
	codec   *ActionCodec
	tree    *Tree
	prefs   *PreferencesManager

	store   *store.Store
	history *history.History

	internalDir   string
	emptySnapshot *store.Store
	currentPath   *string
	hasChanges    bool

	gestureDurationSec float64
}

// NewProject builds the canonical empty project (the full component
// tree committed against a blank Store) and returns a Project rooted at
// it. internalDir is the ".flowgrid" directory this process's
// empty/default/preferences files live under.
func NewProject(internalDir string, gestureDurationSec float64) *Project {
	reg := component.NewRegistry()
	areg := action.NewRegistry()
	codec := NewActionCodec()

	tx := store.New().BeginTransient()
	tree := BuildTree(reg, tx)
	RegisterCoreActions(areg, codec, tree.Graph)
	initial, _ := tx.Commit()

	p := &Project{
		reg:                reg,
		actions:            areg,
		codec:              codec,
		tree:               tree,
		prefs:              NewPreferencesManager(internalDir),
		store:              initial,
		history:            history.New(reg, initial),
		internalDir:        internalDir,
		emptySnapshot:      initial,
		gestureDurationSec: gestureDurationSec,
	}
	if err := p.prefs.Load(); err != nil {
		logging.ProjectWarn("failed to load preferences: %v", err)
	}
	return p
}

// Tree returns the concrete component tree, for read access by the UI
// layer and for wiring the not-yet-built /editor subtree in later.
func (p *Project) Tree() *Tree { return p.tree }

// Actions returns the action dispatch registry, for queue producers that
// need CanApply/Shortcuts ahead of enqueuing.
func (p *Project) Actions() *action.Registry { return p.actions }

// Store returns the live, committed Store.
func (p *Project) Store() *store.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// HasChanges reports whether the project has uncommitted-to-disk
// changes since its last successful save or load.
func (p *Project) HasChanges() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasChanges
}

// CurrentPath returns the last user-chosen project path, or "" if none
// (a fresh or empty/default project has never been given one).
func (p *Project) CurrentPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentPath == nil {
		return ""
	}
	return *p.currentPath
}

func (p *Project) installStore(s *store.Store) {
	p.store = s
	p.tree.Refresh(s)
}

func (p *Project) emptyPath() string   { return filepath.Join(p.internalDir, EmptyProjectName) }
func (p *Project) defaultPath() string { return filepath.Join(p.internalDir, DefaultProjectName) }

// OpenEmpty resets the project to the empty state: the on-disk
// ".flowgrid/empty.fls" if present (so it can be customized), otherwise
// the canonical in-process empty project built at construction.
func (p *Project) OpenEmpty() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if data, err := os.ReadFile(p.emptyPath()); err == nil {
		s, loadErr := LoadSnapshot(data)
		if loadErr != nil {
			return fmt.Errorf("project: loading %s: %w", p.emptyPath(), loadErr)
		}
		p.installStore(s)
		p.history = history.New(p.reg, s)
	} else {
		p.installStore(p.emptySnapshot)
		p.history = history.New(p.reg, p.emptySnapshot)
	}
	p.hasChanges = false
	p.currentPath = nil
	logging.Project("opened empty project")
	return nil
}

// OpenDefault opens ".flowgrid/default.fla" if present, else falls back
// to the empty project. CanApply's upstream counterpart (Open.Default)
// requires the file to exist; here it degrades gracefully instead, since
// a fresh workspace has no default project yet.
func (p *Project) OpenDefault() error {
	if _, err := os.Stat(p.defaultPath()); err != nil {
		return p.OpenEmpty()
	}
	return p.Open(p.defaultPath())
}

// Open loads filePath, dispatching on its extension per §4.6. Only a
// user-chosen path (not the internal empty/default paths) is remembered
// as CurrentPath and recorded in Preferences.
func (p *Project) Open(filePath string) error {
	format, ok := FormatForPath(filePath)
	if !ok {
		return fmt.Errorf("project: unrecognized project extension %q", filepath.Ext(filePath))
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("project: reading %s: %w", filePath, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch format {
	case StateFormat:
		s, loadErr := LoadSnapshot(data)
		if loadErr != nil {
			return loadErr
		}
		p.installStore(s)
		p.history = history.New(p.reg, s)
	case ActionFormat:
		s, h, loadErr := LoadActionLog(data, p.emptySnapshot, p.reg, p.actions, p.codec)
		if loadErr != nil {
			return loadErr
		}
		p.installStore(s)
		p.history = h
	}

	p.hasChanges = false
	if IsUserProjectPath(p.internalDir, filePath) {
		clean := filePath
		p.currentPath = &clean
		p.prefs.OnProjectOpened(clean)
	} else {
		p.currentPath = nil
	}
	logging.Project("opened %s project %s", format, filePath)
	return nil
}

// Save writes the project to filePath in the format its extension
// selects, committing any open gesture first so the save reflects the
// latest edit. A no-op if filePath is already CurrentPath and nothing
// has changed since, mirroring Project::Save's early return.
func (p *Project) Save(filePath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentPath != nil && *p.currentPath == filePath && !p.hasChanges {
		return nil
	}

	format, ok := FormatForPath(filePath)
	if !ok {
		return fmt.Errorf("project: unrecognized project extension %q", filepath.Ext(filePath))
	}

	if p.history.CanUndo() {
		p.history.FinalizeGesture(p.store)
	}

	var data []byte
	var err error
	switch format {
	case StateFormat:
		data, err = SaveSnapshot(p.store)
	case ActionFormat:
		data, err = SaveActionLog(p.history, p.codec)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return err
	}

	p.hasChanges = false
	if IsUserProjectPath(p.internalDir, filePath) {
		clean := filePath
		p.currentPath = &clean
		p.prefs.OnProjectOpened(clean)
	}
	logging.Project("saved %s project %s", format, filePath)
	return nil
}

// SaveCurrent saves to CurrentPath, or returns an error if there is
// none. ApplyFrame rewrites a queued SaveCurrent to ShowSaveDialog when
// CurrentPath is empty, so this error is only reached by direct calls.
func (p *Project) SaveCurrent() error {
	p.mu.Lock()
	cur := p.currentPath
	p.mu.Unlock()
	if cur == nil {
		return fmt.Errorf("project: no current path to save to")
	}
	return p.Save(*cur)
}

// SaveDefault writes the current project as ".flowgrid/default.fla",
// the project a fresh workspace opens by default thereafter.
func (p *Project) SaveDefault() error {
	return p.Save(p.defaultPath())
}

// SaveEmpty writes the current project as ".flowgrid/empty.fls", the
// base every ActionLog replay and every bare OpenEmpty starts from.
func (p *Project) SaveEmpty() error {
	return p.Save(p.emptyPath())
}

// CanApply reports whether a ProjectAction is currently valid, mirroring
// App.cpp's CanApply cases for the Project namespace.
func (p *Project) CanApply(verb string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch verb {
	case "Undo":
		return p.history.CanUndo()
	case "Redo":
		return p.history.CanRedo()
	case "Save", "SaveDefault":
		return !p.history.Empty()
	case "ShowSaveDialog", "SaveCurrent":
		return p.hasChanges
	case "OpenDefault":
		_, err := os.Stat(p.defaultPath())
		return err == nil
	default:
		return true
	}
}

// applyControlAction executes a Project/History-namespace action that
// does not go through the ordinary Store-transient dispatch.
func (p *Project) applyControlAction(a ProjectAction) error {
	switch a.Verb {
	case "Undo":
		p.mu.Lock()
		p.store = p.history.Undo(p.store)
		p.tree.Refresh(p.store)
		p.mu.Unlock()
		return nil
	case "Redo":
		p.mu.Lock()
		p.store = p.history.Redo()
		p.tree.Refresh(p.store)
		p.mu.Unlock()
		return nil
	case "Open":
		return p.Open(a.Path)
	case "OpenEmpty":
		return p.OpenEmpty()
	case "OpenDefault":
		return p.OpenDefault()
	case "Save":
		return p.Save(a.Path)
	case "SaveCurrent":
		if p.CurrentPath() == "" {
			// Rewritten to ShowSaveDialog, which has nothing to do here.
			return nil
		}
		return p.SaveCurrent()
	case "SaveDefault":
		return p.SaveDefault()
	case "ShowOpenDialog", "ShowSaveDialog":
		// UI-layer concerns: Project has nothing to do beyond exposing
		// CanApply; the dialog itself lives outside this package.
		return nil
	default:
		return fmt.Errorf("project: unknown Project action %q", a.Verb)
	}
}

// ApplyFrame drains one queue.Frame: routes Project/History-namespace
// actions directly, applies every other CanApply-accepted, savable
// action into a single transient (one commit per frame, per §2's
// control flow), records each into History, notifies the component
// registry of the resulting patch, and finally lets the gesture engine
// decide whether to auto- or force-finalize.
func (p *Project) ApplyFrame(frame queue.Frame) error {
	now := time.Now()
	var forceFinalize bool
	var savable []queue.Entry

	for _, e := range frame.Entries {
		a := e.Action
		if pa, ok := a.(ProjectAction); ok {
			if err := p.applyControlAction(pa); err != nil {
				logging.ProjectError("applying %s: %v", pa.Verb, err)
			}
			if pa.Meta().ForceFinalize {
				forceFinalize = true
			}
			continue
		}
		p.mu.Lock()
		can := p.actions.CanApply(a)
		p.mu.Unlock()
		if !can {
			logging.ActionWarn("rejected %s.%s at %s", a.Namespace(), a.Leaf(), a.TargetPath())
			continue
		}
		if a.Meta().Savable {
			savable = append(savable, e)
		}
		if a.Meta().ForceFinalize {
			forceFinalize = true
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(savable) > 0 {
		tx := p.store.BeginTransient()
		for _, e := range savable {
			if err := p.actions.Apply(tx, e.Action); err != nil {
				logging.ActionError("%v", err)
			}
		}
		after, patch := tx.Commit()
		p.store = after
		p.tree.Refresh(after)
		if !patch.Empty() {
			p.hasChanges = true
			p.reg.NotifyPatch(patch.BasePath, touchedRelPaths(patch))
		}
		for _, e := range savable {
			p.history.RecordAction(e.Action, e.Timestamp)
		}
	}

	p.history.MaybeFinalize(now, p.gestureDurationSec, forceFinalize, p.store)
	return nil
}

func touchedRelPaths(patch store.Patch) []path.Path {
	rels := make([]path.Path, 0, len(patch.Ops))
	for rel := range patch.Ops {
		rels = append(rels, rel)
	}
	return rels
}
