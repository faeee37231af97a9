package vlist

import "fmt"

// Theme provides the styles a list draws its own chrome with. Row content is
// styled by the renderer.
type Theme struct {
	Base   Style // default text style
	Muted  Style // scrollbar track, de-emphasized text
	Accent Style // scrollbar thumb, highlighted text
	Error  Style // error rows and messages
}

// ThemeDark is a dark theme with light text on dark background.
var ThemeDark = Theme{
	Base:   Style{FG: White},
	Muted:  Style{FG: BrightBlack},
	Accent: Style{FG: BrightCyan},
	Error:  Style{FG: BrightRed},
}

// ThemeLight is a light theme with dark text on light background.
var ThemeLight = Theme{
	Base:   Style{FG: Black},
	Muted:  Style{FG: BrightBlack},
	Accent: Style{FG: Blue},
	Error:  Style{FG: Red},
}

// ThemeMonochrome uses only attributes.
var ThemeMonochrome = Theme{
	Base:   Style{},
	Muted:  Style{Attr: AttrDim},
	Accent: Style{Attr: AttrBold},
	Error:  Style{Attr: AttrBold | AttrUnderline},
}

// ThemeByName looks up a theme by its config name: "dark", "light" or "mono".
// The empty name is "dark".
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "dark", "":
		return ThemeDark, nil
	case "light":
		return ThemeLight, nil
	case "mono":
		return ThemeMonochrome, nil
	}
	return Theme{}, InvalidConfig(fmt.Sprintf("unknown theme %q", name))
}
