package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
)

func TestFalseColor(t *testing.T) {
	if got := falseColor(objectid.Empty); got != (color.RGBA{A: 255}) {
		t.Errorf("empty = %v, want opaque black", got)
	}
	seen := map[color.RGBA]objectid.ObjectID{}
	for id := objectid.ObjectID(1); id <= 16; id++ {
		c := falseColor(id)
		if c.A != 255 {
			t.Errorf("id %d alpha = %d", id, c.A)
		}
		if prev, dup := seen[c]; dup {
			t.Errorf("ids %d and %d share color %v", prev, id, c)
		}
		seen[c] = id
		if falseColor(id) != c {
			t.Errorf("id %d color is not stable", id)
		}
	}
}

func TestFalseColorImage(t *testing.T) {
	ids := image.NewRGBA(image.Rect(0, 0, 2, 1))
	objectid.Store(ids, 1, 0, 7)
	out := falseColorImage(ids)
	if out.RGBAAt(0, 0) != falseColor(objectid.Empty) || out.RGBAAt(1, 0) != falseColor(7) {
		t.Errorf("pixels = %v %v", out.RGBAAt(0, 0), out.RGBAAt(1, 0))
	}
}
