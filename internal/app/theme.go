package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// VolscopeTheme provides a custom theme for the application.
type VolscopeTheme struct{}

var _ fyne.Theme = (*VolscopeTheme)(nil)

func (t *VolscopeTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x10, G: 0x10, B: 0x14, A: 0xFF} // Near-black for microscopy data
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x00, G: 0xB0, B: 0xC4, A: 0xFF} // Cyan, matches default channel tint
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0x80} // Yellow for selected tracks
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *VolscopeTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *VolscopeTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *VolscopeTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
