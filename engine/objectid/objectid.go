package objectid

import (
	"fmt"
	"image"
	"image/color"
)

// ObjectID identifies a pickable object. The zero value is Empty and never refers to an object.
type ObjectID uint32

// Empty is the "no object" identifier reported on a pick miss.
const Empty ObjectID = 0

func (id ObjectID) String() string {
	if id == Empty {
		return "empty"
	}
	return fmt.Sprintf("#%08x", uint32(id))
}

// Encode splits an identifier into the big-endian RGBA bytes written by the picking shader.
//
// Parameters:
//   - id: the identifier
//
// Returns:
//   - color.RGBA: r = bits 31..24, g = 23..16, b = 15..8, a = 7..0
func Encode(id ObjectID) color.RGBA {
	return color.RGBA{
		R: uint8(id >> 24),
		G: uint8(id >> 16),
		B: uint8(id >> 8),
		A: uint8(id),
	}
}

// DecodeColor reassembles an identifier from four channel bytes.
//
// Parameters:
//   - c: the raw pixel
//
// Returns:
//   - ObjectID: (r<<24)|(g<<16)|(b<<8)|a
func DecodeColor(c color.RGBA) ObjectID {
	return ObjectID(uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A))
}

// Decode reads the identifier stored at pixel (x, y) of an identifier buffer.
// The raw bytes are used as-is; the buffer is not treated as premultiplied color.
//
// Parameters:
//   - img: the identifier buffer
//   - x: the pixel column
//   - y: the pixel row, 0 at the top
//
// Returns:
//   - ObjectID: the identifier, or Empty if the pixel is outside the image
func Decode(img *image.RGBA, x, y int) ObjectID {
	if img == nil || !(image.Point{X: x, Y: y}.In(img.Rect)) {
		return Empty
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	return DecodeColor(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
}

// Store writes an identifier into pixel (x, y) of an identifier buffer.
//
// Parameters:
//   - img: the identifier buffer
//   - x: the pixel column
//   - y: the pixel row, 0 at the top
//   - id: the identifier to write
func Store(img *image.RGBA, x, y int, id ObjectID) {
	if img == nil || !(image.Point{X: x, Y: y}.In(img.Rect)) {
		return
	}
	c := Encode(id)
	i := img.PixOffset(x, y)
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}
