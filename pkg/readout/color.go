package readout

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Marker colors at -3, 0 and +3 stops.
var (
	shadowColor    = colorful.Color{R: 0.17, G: 0.30, B: 0.49}
	midtoneColor   = colorful.Color{R: 128.0 / 255, G: 128.0 / 255, B: 128.0 / 255}
	highlightColor = colorful.Color{R: 0.95, G: 0.66, B: 0.23}
)

// colorRange is how many stops either side of middle gray reach the end colors.
const colorRange = 3.0

// ZoneColor returns a hex color for stops, blended in HCL from shadow blue
// through gray to highlight amber.
func ZoneColor(stops float64) string {
	if math.IsNaN(stops) {
		return midtoneColor.Hex()
	}
	s := math.Max(-colorRange, math.Min(colorRange, stops))
	switch {
	case s == 0:
		return midtoneColor.Hex()
	case s < 0:
		return midtoneColor.BlendHcl(shadowColor, -s/colorRange).Clamped().Hex()
	default:
		return midtoneColor.BlendHcl(highlightColor, s/colorRange).Clamped().Hex()
	}
}
