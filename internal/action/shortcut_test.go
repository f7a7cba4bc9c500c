package action

import "testing"

func TestParseMetadataSpecMenuAndShortcut(t *testing.T) {
	menu, sc, err := ParseMetadataSpec("~File/Save@Ctrl+S")
	if err != nil {
		t.Fatal(err)
	}
	if menu != "File/Save" {
		t.Fatalf("menu = %q, want File/Save", menu)
	}
	if sc.Key != "S" || sc.Modifiers != ModCtrl {
		t.Fatalf("shortcut = %+v, want Ctrl+S", sc)
	}
}

func TestParseMetadataSpecShortcutOnly(t *testing.T) {
	menu, sc, err := ParseMetadataSpec("@Ctrl+Shift+P")
	if err != nil {
		t.Fatal(err)
	}
	if menu != "" {
		t.Fatalf("expected no menu label, got %q", menu)
	}
	if sc.Key != "P" || sc.Modifiers != ModCtrl|ModShift {
		t.Fatalf("shortcut = %+v, want Ctrl+Shift+P", sc)
	}
}

func TestParseMetadataSpecEmpty(t *testing.T) {
	menu, sc, err := ParseMetadataSpec("")
	if err != nil || menu != "" || !sc.Empty() {
		t.Fatalf("empty spec should yield empty menu/shortcut, got %q %+v %v", menu, sc, err)
	}
}

func TestParseMetadataSpecInvalidModifier(t *testing.T) {
	if _, _, err := ParseMetadataSpec("@Fn+Z"); err == nil {
		t.Fatal("expected error for unknown modifier Fn")
	}
}

func TestShortcutTableRejectsDuplicateBinding(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate shortcut binding")
		}
	}()
	table := NewShortcutTable()
	table.Register(Metadata{Name: "SaveA", Shortcut: Shortcut{Modifiers: ModCtrl, Key: "S"}})
	table.Register(Metadata{Name: "SaveB", Shortcut: Shortcut{Modifiers: ModCtrl, Key: "S"}})
}

func TestShortcutTableLookup(t *testing.T) {
	table := NewShortcutTable()
	meta := Metadata{Name: "Undo", Shortcut: Shortcut{Modifiers: ModCtrl, Key: "Z"}}
	table.Register(meta)

	got, ok := table.Lookup(Shortcut{Modifiers: ModCtrl, Key: "Z"})
	if !ok || got.Name != "Undo" {
		t.Fatalf("expected to find Undo, got %+v %v", got, ok)
	}
	if _, ok := table.Lookup(Shortcut{Modifiers: ModCtrl, Key: "Y"}); ok {
		t.Fatal("unbound shortcut must not be found")
	}
}
