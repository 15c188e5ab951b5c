package schema

import "strings"

// DefaultTheme is the default UI theme name.
const DefaultTheme ThemeName = "dark"

var themeNames = []ThemeName{
	"dark",
	"light",
}

// AvailableThemes returns the supported theme names.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if supported.
func NormalizeThemeName(name string) (ThemeName, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark", "night":
		return "dark", true
	case "light", "day":
		return "light", true
	default:
		return "", false
	}
}
