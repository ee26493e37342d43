package main

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads consecutive identifiers around the hue circle, in thousandths of a degree.
const goldenAngle = 137508

// falseColor maps an identifier to a saturated color. Empty maps to black and equal
// identifiers always map to the same color.
func falseColor(id objectid.ObjectID) color.RGBA {
	if id == objectid.Empty {
		return color.RGBA{A: 255}
	}
	hue := float64(uint64(id)*goldenAngle%360000) / 1000
	r, g, b := colorful.Hsv(hue, 0.7, 0.95).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// falseColorImage renders an identifier buffer as false color.
func falseColorImage(ids *image.RGBA) *image.RGBA {
	b := ids.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetRGBA(x, y, falseColor(objectid.Decode(ids, x, y)))
		}
	}
	return out
}
