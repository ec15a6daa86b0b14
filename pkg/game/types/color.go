package types

// Color identifies a player and the chips that originated from their stock.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// AllColors lists the four player colors in seating order.
var AllColors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// Valid reports whether c is one of the four player colors.
func (c Color) Valid() bool {
	switch c {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return true
	}
	return false
}

func (c Color) String() string {
	return string(c)
}
