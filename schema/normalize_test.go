package schema

import "testing"

func TestValidateUserID(t *testing.T) {
	cases := []struct {
		name  string
		user  UserID
		valid bool
	}{
		{"simple", "alice", true},
		{"with-dots", "alice.dev", true},
		{"with-underscore", "alice_dev", true},
		{"with-dash", "alice-dev", true},
		{"with-digits", "alice123", true},
		{"empty", "", false},
		{"uppercase", "Alice", false},
		{"space", "alice dev", false},
		{"leading-space", " alice", false},
		{"trailing-space", "alice ", false},
		{"unicode", "Ã¥lice", false},
		{"symbol", "alice@", false},
	}

	for _, tc := range cases {
		err := ValidateUserID(tc.user)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("case %q expected error, got nil", tc.name)
		}
	}
}

func TestParseSplitDirection(t *testing.T) {
	cases := map[string]SplitLayout{
		"":           LayoutVertical,
		"v":          LayoutVertical,
		"vertical":   LayoutVertical,
		"h":          LayoutHorizontal,
		"horizontal": LayoutHorizontal,
	}
	for input, want := range cases {
		got, err := ParseSplitDirection(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %q, got %q", input, want, got)
		}
	}
	if _, err := ParseSplitDirection("diagonal"); err != ErrInvalidDirection {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestNormalizeThemeName(t *testing.T) {
	if got, ok := NormalizeThemeName(" Light "); !ok || got != "light" {
		t.Fatalf("expected light, got %q ok=%v", got, ok)
	}
	if _, ok := NormalizeThemeName("outrun"); ok {
		t.Fatalf("expected unknown theme to be rejected")
	}
}

func TestHostDisplayName(t *testing.T) {
	if got := (Host{Name: "prod", Address: "10.0.0.1"}).DisplayName(); got != "prod" {
		t.Fatalf("expected name, got %q", got)
	}
	if got := (Host{Address: "10.0.0.1"}).DisplayName(); got != "10.0.0.1" {
		t.Fatalf("expected address fallback, got %q", got)
	}
	if got := LocalHost().Target(); got != "local" {
		t.Fatalf("expected local target, got %q", got)
	}
	if got := (Host{Address: "db", Username: "root", Port: 2222}).Target(); got != "root@db:2222" {
		t.Fatalf("unexpected target %q", got)
	}
}

func TestShortcutDisplayAndPatch(t *testing.T) {
	sc := Shortcut{Key: "e", Meta: true, Shift: true}
	if got := sc.Display(); got != "⌘⇧E" {
		t.Fatalf("unexpected display %q", got)
	}
	key := "x"
	alt := true
	sc = ShortcutPatch{Key: &key, Alt: &alt}.Apply(sc)
	if sc.Key != "x" || !sc.Alt || !sc.Meta || !sc.Shift {
		t.Fatalf("patch merged wrong fields: %+v", sc)
	}
	if got := sc.Display(); got != "⌘⇧⌥X" {
		t.Fatalf("unexpected display %q", got)
	}
}

func TestDefaultShortcutsHaveUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	defaults := DefaultShortcuts()
	for _, sc := range defaults {
		if seen[sc.ID] {
			t.Fatalf("duplicate shortcut id %q", sc.ID)
		}
		seen[sc.ID] = true
	}
	if !seen["tab-9"] || !seen["split-vertical"] {
		t.Fatalf("missing expected defaults: %v", seen)
	}
}

func TestNormalizeSettings(t *testing.T) {
	got := NormalizeSettings(Settings{Scrollback: -1, SearchDirection: "sideways"})
	if got.Scrollback != DefaultScrollback || got.SearchDirection != SearchBottomToTop {
		t.Fatalf("unexpected normalized settings: %+v", got)
	}
}
