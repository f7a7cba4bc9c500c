package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/flowgrid/flowgrid/internal/logging"
)

// Preferences is the single, workspace-level ".flp" document: recently
// opened project paths, independent of any one project. MaxRecent is an
// in-memory limit and is not written to the file. Grounded directly on the Go-idiom pattern the
// teacher's internal/ux/preferences.go uses for its own workspace
// preferences file: a mutex-guarded manager over a fixed path, loaded
// and saved with encoding/json and os.
type Preferences struct {
	RecentlyOpenedPaths []string `json:"recently_opened_paths"`
	MaxRecent           int      `json:"-"`
}

func defaultPreferences() *Preferences {
	return &Preferences{MaxRecent: 10}
}

// PreferencesManager loads, saves, and mutates the workspace's
// Preferences file at path, guarding every access with a mutex exactly
// as ux.PreferencesManager does for its own JSON document.
type PreferencesManager struct {
	mu    sync.RWMutex
	path  string
	prefs *Preferences
}

// NewPreferencesManager returns a manager rooted at
// <internalDir>/Preferences.flp, with in-memory defaults until Load is
// called.
func NewPreferencesManager(internalDir string) *PreferencesManager {
	return &PreferencesManager{
		path:  filepath.Join(internalDir, PreferencesName),
		prefs: defaultPreferences(),
	}
}

// Load reads the preferences file, falling back to defaults (not an
// error) if it does not yet exist.
func (m *PreferencesManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.prefs = defaultPreferences()
			return nil
		}
		return err
	}
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.MaxRecent == 0 {
		p.MaxRecent = 10
	}
	m.prefs = &p
	return nil
}

// Save persists the current preferences, creating the internal
// directory if needed.
func (m *PreferencesManager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

// Get returns a copy of the current preferences.
func (m *PreferencesManager) Get() Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.prefs
}

// OnProjectOpened records path as the most recently opened project,
// moving it to the front of the recent list and trimming to MaxRecent.
// Mirrors App::Preferences::OnProjectOpened.
func (m *PreferencesManager) OnProjectOpened(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filtered := m.prefs.RecentlyOpenedPaths[:0:0]
	for _, p := range m.prefs.RecentlyOpenedPaths {
		if p != path {
			filtered = append(filtered, p)
		}
	}
	m.prefs.RecentlyOpenedPaths = append([]string{path}, filtered...)
	if max := m.prefs.MaxRecent; max > 0 && len(m.prefs.RecentlyOpenedPaths) > max {
		m.prefs.RecentlyOpenedPaths = m.prefs.RecentlyOpenedPaths[:max]
	}
	if err := m.saveLocked(); err != nil {
		logging.ProjectWarn("failed to persist preferences after opening %s: %v", path, err)
	}
}

func (m *PreferencesManager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}
