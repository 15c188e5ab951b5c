package schema

// SearchDirection controls which way terminal search walks the scrollback.
type SearchDirection string

const (
	SearchBottomToTop SearchDirection = "bottomToTop"
	SearchTopToBottom SearchDirection = "topToBottom"
)

// DefaultScrollback is the default terminal scrollback in lines.
const DefaultScrollback = 10000

// Settings are the user's application preferences.
type Settings struct {
	AutoStartLocalTerminal bool            `json:"autoStartLocalTerminal"`
	AutoCopyOnSelect       bool            `json:"autoCopyOnSelect"`
	Scrollback             int             `json:"scrollback"`
	OpenTabsNextToActive   bool            `json:"openTabsNextToActive"`
	SearchDirection        SearchDirection `json:"searchDirection"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Scrollback:      DefaultScrollback,
		SearchDirection: SearchBottomToTop,
	}
}

// Preferences groups the persisted theme and settings.
type Preferences struct {
	Theme    ThemeName `json:"theme"`
	Settings Settings  `json:"settings"`
}

// DefaultPreferences returns the preferences used when nothing is stored.
func DefaultPreferences() Preferences {
	return Preferences{Theme: DefaultTheme, Settings: DefaultSettings()}
}

// NormalizeSettings replaces out-of-range values with defaults.
func NormalizeSettings(s Settings) Settings {
	if s.Scrollback <= 0 {
		s.Scrollback = DefaultScrollback
	}
	switch s.SearchDirection {
	case SearchBottomToTop, SearchTopToBottom:
	default:
		s.SearchDirection = SearchBottomToTop
	}
	return s
}
