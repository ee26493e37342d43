package picker

import (
	"testing"
)

type pixel struct{ s, t int }

func collect(it *SpiralIterator) []pixel {
	var out []pixel
	for s, t := range it.All() {
		out = append(out, pixel{s, t})
	}
	return out
}

func TestSpiralStartPixel(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		u, v float32
		want pixel
	}{
		{"center", 256, 256, 0.5, 0.5, pixel{128, 128}},
		{"origin", 10, 10, 0, 0, pixel{0, 0}},
		{"floors", 10, 10, 0.99, 0.05, pixel{9, 0}},
		{"non square", 20, 10, 0.5, 0.5, pixel{10, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewSpiralIterator(tt.w, tt.h, 3, tt.u, tt.v)
			if !it.Next() {
				t.Fatal("Next() = false on an in-bounds start")
			}
			if got := (pixel{it.S(), it.T()}); got != tt.want {
				t.Errorf("first pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpiralOutOfBoundsStartIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		u, v float32
	}{
		{"u = 1", 1, 0.5},
		{"v = 1", 0.5, 1},
		{"negative u", -0.01, 0.5},
		{"negative v", 0.5, -0.2},
		{"far away", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collect(NewSpiralIterator(16, 16, 5, tt.u, tt.v)); len(got) != 0 {
				t.Errorf("produced %d pixels, want 0", len(got))
			}
		})
	}
}

func TestSpiralOrder(t *testing.T) {
	got := collect(NewSpiralIterator(11, 11, 2, 5.5/11, 5.5/11))
	want := []pixel{
		{5, 5}, {6, 5}, {6, 6}, {5, 6}, {4, 6}, {4, 5}, {4, 4}, {5, 4}, {6, 4},
	}
	if len(got) < len(want) {
		t.Fatalf("produced %d pixels, want at least %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSpiralCountBounds(t *testing.T) {
	grids := []struct {
		name string
		w, h int
		u, v float32
	}{
		{"centered", 64, 64, 0.5, 0.5},
		{"corner", 64, 64, 0, 0},
		{"edge", 8, 32, 0.99, 0.5},
		{"tiny", 1, 1, 0.5, 0.5},
	}
	for _, g := range grids {
		t.Run(g.name, func(t *testing.T) {
			prev := 0
			for m := 0; m <= 6; m++ {
				got := collect(NewSpiralIterator(g.w, g.h, m, g.u, g.v))
				if limit := (2*m + 1) * (2*m + 1); len(got) > limit {
					t.Errorf("M=%d produced %d pixels, more than %d", m, len(got), limit)
				}
				if len(got) < prev {
					t.Errorf("M=%d produced %d pixels, fewer than M-1 (%d)", m, len(got), prev)
				}
				prev = len(got)

				seen := make(map[pixel]bool, len(got))
				for _, p := range got {
					if p.s < 0 || p.s >= g.w || p.t < 0 || p.t >= g.h {
						t.Fatalf("M=%d produced out of bounds pixel %v", m, p)
					}
					if seen[p] {
						t.Fatalf("M=%d produced %v twice", m, p)
					}
					seen[p] = true
				}
			}
		})
	}
}

func TestSpiralDeterministic(t *testing.T) {
	a := collect(NewSpiralIterator(32, 24, 4, 0.3, 0.7))
	b := collect(NewSpiralIterator(32, 24, 4, 0.3, 0.7))
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSpiralExhaustedStaysExhausted(t *testing.T) {
	it := NewSpiralIterator(4, 4, 0, 0.5, 0.5)
	if !it.Next() {
		t.Fatal("first Next() = false")
	}
	if it.Next() || it.Next() {
		t.Error("Next() = true after the last ring")
	}
	if it.Count() != 1 {
		t.Errorf("Count() = %d, want 1", it.Count())
	}
}
