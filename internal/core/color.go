package core

// Color is a foreground color for a screen cell.
// The platform layer maps it to ANSI 256-color codes.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorOrange
	ColorGray
	ColorBrown
)

// GemColors is the palette used for the six Match-3 gem kinds when no
// gem set images are loaded.
var GemColors = [...]Color{ColorRed, ColorGreen, ColorYellow, ColorBlue, ColorMagenta, ColorOrange}
