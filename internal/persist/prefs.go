package persist

import (
	"errors"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// PrefsStore persists the theme and settings document. Values are cached
// in memory; Reload picks up edits made by another process.
type PrefsStore struct {
	mu    sync.Mutex
	path  string
	log   pslog.Logger
	prefs schema.Preferences
}

// OpenPrefs loads the preferences at path, merging stored values over the
// defaults.
func OpenPrefs(path string, logger pslog.Logger) (*PrefsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preferences path is required")
	}
	if logger != nil {
		logger = logger.With("prefs", path)
	}
	store := &PrefsStore{path: path, log: logger}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Path returns the backing file.
func (p *PrefsStore) Path() string {
	return p.path
}

// Reload re-reads the file. A missing file resets to defaults.
func (p *PrefsStore) Reload() error {
	prefs := schema.DefaultPreferences()
	ok, err := readJSON(p.path, &prefs)
	if err != nil {
		if p.log != nil {
			p.log.Warn("prefs load failed", "err", err)
		}
		return err
	}
	prefs.Settings = schema.NormalizeSettings(prefs.Settings)
	if theme, valid := schema.NormalizeThemeName(string(prefs.Theme)); valid {
		prefs.Theme = theme
	} else {
		prefs.Theme = schema.DefaultTheme
	}
	p.mu.Lock()
	p.prefs = prefs
	p.mu.Unlock()
	if p.log != nil {
		p.log.Debug("prefs load ok", "stored", ok, "theme", prefs.Theme)
	}
	return nil
}

// Preferences returns the cached document.
func (p *PrefsStore) Preferences() schema.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

// Settings returns the cached settings.
func (p *PrefsStore) Settings() schema.Settings {
	return p.Preferences().Settings
}

// Theme returns the cached theme.
func (p *PrefsStore) Theme() schema.ThemeName {
	return p.Preferences().Theme
}

// SetTheme validates and stores a theme name.
func (p *PrefsStore) SetTheme(name string) (schema.ThemeName, error) {
	theme, ok := schema.NormalizeThemeName(name)
	if !ok {
		return "", schema.ErrInvalidTheme
	}
	_, err := p.update(func(prefs *schema.Preferences) {
		prefs.Theme = theme
	})
	return theme, err
}

// UpdateSettings applies fn to a copy of the settings and stores the
// normalised result.
func (p *PrefsStore) UpdateSettings(fn func(*schema.Settings)) (schema.Settings, error) {
	prefs, err := p.update(func(prefs *schema.Preferences) {
		fn(&prefs.Settings)
		prefs.Settings = schema.NormalizeSettings(prefs.Settings)
	})
	return prefs.Settings, err
}

// ResetSettings stores the default settings and keeps the theme.
func (p *PrefsStore) ResetSettings() (schema.Settings, error) {
	return p.UpdateSettings(func(s *schema.Settings) {
		*s = schema.DefaultSettings()
	})
}

func (p *PrefsStore) update(fn func(*schema.Preferences)) (schema.Preferences, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.prefs
	fn(&next)
	if err := writeJSON(p.path, next, p.log); err != nil {
		return p.prefs, err
	}
	p.prefs = next
	return next, nil
}
