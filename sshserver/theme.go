package sshserver

import (
	"strconv"

	"pkt.systems/termdeck/schema"
)

type rgb struct {
	r int
	g int
	b int
}

type tuiTheme struct {
	Name           schema.ThemeName
	TabBarBG       rgb
	TabActiveBG    rgb
	TabActiveFG    rgb
	TabInactiveBG  rgb
	TabInactiveFG  rgb
	ErrorFG        rgb
	MetaFG         rgb
	ConnectedFG    rgb
	DisconnectedFG rgb
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
)

var tuiThemes = map[schema.ThemeName]tuiTheme{
	"dark": {
		Name:           "dark",
		TabBarBG:       rgb{r: 30, g: 30, b: 30},
		TabActiveBG:    rgb{r: 0, g: 122, b: 204},
		TabActiveFG:    rgb{r: 255, g: 255, b: 255},
		TabInactiveBG:  rgb{r: 45, g: 45, b: 45},
		TabInactiveFG:  rgb{r: 204, g: 204, b: 204},
		ErrorFG:        rgb{r: 244, g: 71, b: 71},
		MetaFG:         rgb{r: 133, g: 133, b: 133},
		ConnectedFG:    rgb{r: 78, g: 201, b: 176},
		DisconnectedFG: rgb{r: 206, g: 145, b: 120},
	},
	"light": {
		Name:           "light",
		TabBarBG:       rgb{r: 243, g: 243, b: 243},
		TabActiveBG:    rgb{r: 255, g: 255, b: 255},
		TabActiveFG:    rgb{r: 0, g: 0, b: 0},
		TabInactiveBG:  rgb{r: 236, g: 236, b: 236},
		TabInactiveFG:  rgb{r: 97, g: 97, b: 97},
		ErrorFG:        rgb{r: 205, g: 49, b: 49},
		MetaFG:         rgb{r: 110, g: 110, b: 110},
		ConnectedFG:    rgb{r: 0, g: 128, b: 0},
		DisconnectedFG: rgb{r: 163, g: 21, b: 21},
	},
}

func themeForName(name schema.ThemeName) tuiTheme {
	if name == "" {
		name = schema.DefaultTheme
	}
	if theme, ok := tuiThemes[name]; ok {
		return theme
	}
	return tuiThemes[schema.DefaultTheme]
}

func ansiFgRGB(c rgb) string {
	return "\x1b[38;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}

func ansiBgRGB(c rgb) string {
	return "\x1b[48;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}
