package action

import (
	"fmt"
	"strings"
)

// ModifierFlag is a bitmask of keyboard modifiers held for a shortcut.
type ModifierFlag uint8

const (
	ModNone ModifierFlag = 0
	ModCtrl ModifierFlag = 1 << (iota - 1)
	ModShift
	ModAlt
	ModSuper
)

// Shortcut is a parsed keyboard binding: a modifier set plus a key name.
// The zero value means "no shortcut".
type Shortcut struct {
	Modifiers ModifierFlag
	Key       string
}

func (s Shortcut) Empty() bool {
	return s.Key == ""
}

func (s Shortcut) String() string {
	if s.Empty() {
		return ""
	}
	var parts []string
	if s.Modifiers&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if s.Modifiers&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if s.Modifiers&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if s.Modifiers&ModSuper != 0 {
		parts = append(parts, "Super")
	}
	parts = append(parts, s.Key)
	return strings.Join(parts, "+")
}

// ParseMetadataSpec parses the compact metadata string every action type
// declares at compile time, of the form "[~menu]?[@shortcut]", e.g.
// "~File/Save@Ctrl+S", "~Edit/Undo@Ctrl+Z", or "@Ctrl+Shift+P" with no
// menu entry, or "" for an action with neither. The shortcut half is a
// "+"-joined modifier list ending in the key name (Ctrl/Shift/Alt/Super).
func ParseMetadataSpec(spec string) (menuLabel string, shortcut Shortcut, err error) {
	if spec == "" {
		return "", Shortcut{}, nil
	}
	menuPart, shortcutPart := spec, ""
	if at := strings.IndexByte(spec, '@'); at >= 0 {
		menuPart, shortcutPart = spec[:at], spec[at+1:]
	}
	if menuPart != "" {
		if !strings.HasPrefix(menuPart, "~") {
			return "", Shortcut{}, fmt.Errorf("action: menu segment %q must start with '~'", menuPart)
		}
		menuLabel = menuPart[1:]
	}
	if shortcutPart == "" {
		return menuLabel, Shortcut{}, nil
	}
	fields := strings.Split(shortcutPart, "+")
	key := fields[len(fields)-1]
	if key == "" {
		return "", Shortcut{}, fmt.Errorf("action: shortcut %q has no key", shortcutPart)
	}
	var mods ModifierFlag
	for _, f := range fields[:len(fields)-1] {
		switch strings.ToLower(f) {
		case "ctrl", "control":
			mods |= ModCtrl
		case "shift":
			mods |= ModShift
		case "alt":
			mods |= ModAlt
		case "super", "cmd", "meta":
			mods |= ModSuper
		default:
			return "", Shortcut{}, fmt.Errorf("action: unknown modifier %q in %q", f, shortcutPart)
		}
	}
	return menuLabel, Shortcut{Modifiers: mods, Key: key}, nil
}

// ShortcutTable is the process-wide {modifiers, key} -> registered action
// metadata lookup, consulted once per frame against the current key state
// to auto-enqueue matching actions whose CanApply passes.
type ShortcutTable struct {
	entries map[Shortcut]Metadata
}

func NewShortcutTable() *ShortcutTable {
	return &ShortcutTable{entries: make(map[Shortcut]Metadata)}
}

// Register adds meta's shortcut to the table. A duplicate binding is a
// programmer error (two action types fighting over one keystroke) and
// panics rather than silently shadowing one of them.
func (t *ShortcutTable) Register(meta Metadata) {
	if meta.Shortcut.Empty() {
		return
	}
	if existing, ok := t.entries[meta.Shortcut]; ok {
		panic(fmt.Sprintf("action: shortcut %q already bound to %q, cannot rebind to %q", meta.Shortcut, existing.Name, meta.Name))
	}
	t.entries[meta.Shortcut] = meta
}

// Lookup returns the metadata bound to a shortcut, if any.
func (t *ShortcutTable) Lookup(s Shortcut) (Metadata, bool) {
	m, ok := t.entries[s]
	return m, ok
}
