package raster

import "math"

// Color is an RGBA color with float32 components in [0, 1].
// Components are not premultiplied.
type Color struct {
	R, G, B, A float32
}

// NewColor builds a color from components.
func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Common colors used by the composition tests.
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Yellow      = Color{1, 1, 0, 1}
	Orange      = Color{1, 0.65, 0, 1}
	Magenta     = Color{1, 0, 1, 1}
	Transparent = Color{0, 0, 0, 0}

	// GreenZeroAlpha exposes premultiplication bugs: a compositor that
	// honors zero alpha must not show any green.
	GreenZeroAlpha = Color{0, 1, 0, 0}
)

// UniqueColors is a palette of visually distinct opaque colors, used
// to tag swapchain images so each one is identifiable in a composited
// frame.
var UniqueColors = []Color{Red, Green, Blue, Yellow, Orange, Magenta}

// toSRGB applies the sRGB transfer function to a linear component.
// 0 and 1 map to themselves exactly.
func toSRGB(lin float32) float32 {
	if lin <= 0.0031308 {
		return lin * 12.92
	}
	return 1.055*float32(math.Pow(float64(lin), 1/2.4)) - 0.055
}

// fromSRGB inverts toSRGB.
func fromSRGB(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64(s+0.055)/1.055, 2.4))
}

// toSRGB8 encodes a linear byte value as sRGB, rounding to nearest.
func toSRGB8(lin uint8) uint8 {
	v := toSRGB(float32(lin) / 255)
	return uint8(v*255 + 0.5)
}
