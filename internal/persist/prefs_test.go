package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/termdeck/schema"
)

func TestPrefsDefaultsWhenMissing(t *testing.T) {
	prefs, err := OpenPrefs(filepath.Join(t.TempDir(), "prefs.json"), nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	if prefs.Preferences() != schema.DefaultPreferences() {
		t.Fatalf("expected defaults, got %+v", prefs.Preferences())
	}
}

func TestPrefsMergeStoredOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	doc := `{"theme":"light","settings":{"openTabsNextToActive":true}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write prefs: %v", err)
	}
	prefs, err := OpenPrefs(path, nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	got := prefs.Preferences()
	if got.Theme != "light" || !got.Settings.OpenTabsNextToActive {
		t.Fatalf("stored values lost: %+v", got)
	}
	if got.Settings.Scrollback != schema.DefaultScrollback || got.Settings.SearchDirection != schema.SearchBottomToTop {
		t.Fatalf("defaults not merged: %+v", got.Settings)
	}
}

func TestPrefsUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	prefs, err := OpenPrefs(path, nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	if _, err := prefs.SetTheme("LIGHT"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if _, err := prefs.SetTheme("neon"); !errors.Is(err, schema.ErrInvalidTheme) {
		t.Fatalf("expected invalid theme, got %v", err)
	}
	if _, err := prefs.UpdateSettings(func(s *schema.Settings) {
		s.Scrollback = 500
		s.AutoCopyOnSelect = true
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	reopened, err := OpenPrefs(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Preferences()
	if got.Theme != "light" || got.Settings.Scrollback != 500 || !got.Settings.AutoCopyOnSelect {
		t.Fatalf("unexpected persisted prefs %+v", got)
	}
	settings, err := reopened.ResetSettings()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if settings != schema.DefaultSettings() || reopened.Theme() != "light" {
		t.Fatalf("reset should restore settings and keep theme, got %+v %q", settings, reopened.Theme())
	}
}
