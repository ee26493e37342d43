package picker

import (
	"iter"

	"github.com/chewxy/math32"
)

// SpiralIterator walks the pixels of a w x h grid starting at a normalized position and
// circling outward in square rings around it. Pixels outside the grid are skipped. The walk
// ends after ring maxRing. An iterator is single-use; build a new one to restart.
type SpiralIterator struct {
	w, h             int
	ring, maxRing    int
	leg              int
	x, y             int
	offsetX, offsetY int
	count            int
}

// NewSpiralIterator creates a SpiralIterator.
//
// Parameters:
//   - w: the grid width in pixels
//   - h: the grid height in pixels
//   - maxRing: the last ring visited; 0 visits only the start pixel
//   - u: the normalized start column, pixel floor(u*w)
//   - v: the normalized start row, pixel floor(v*h)
//
// Returns:
//   - *SpiralIterator: the iterator, positioned before the first pixel
func NewSpiralIterator(w, h, maxRing int, u, v float32) *SpiralIterator {
	return &SpiralIterator{
		w:       w,
		h:       h,
		ring:    1,
		maxRing: max(maxRing, 0),
		offsetX: int(math32.Floor(u * float32(w))),
		offsetY: int(math32.Floor(v * float32(h))),
	}
}

// Next advances to the next in-bounds pixel.
//
// Returns:
//   - bool: false when the sequence is exhausted; S and T are then meaningless
func (it *SpiralIterator) Next() bool {
	if it.count == 0 {
		if !it.inBounds(0, 0) {
			return false
		}
		it.count++
		return true
	}

	for {
		switch it.leg {
		case 0:
			it.x++
			if it.x == it.ring {
				it.leg++
			}
		case 1:
			it.y++
			if it.y == it.ring {
				it.leg++
			}
		case 2:
			it.x--
			if -it.x == it.ring {
				it.leg++
			}
		case 3:
			it.y--
			if -it.y == it.ring {
				it.leg = 0
				it.ring++
			}
		}
		if it.ring > it.maxRing || it.inBounds(it.x, it.y) {
			break
		}
	}
	if it.ring > it.maxRing {
		return false
	}
	it.count++
	return true
}

// S returns the current pixel column.
func (it *SpiralIterator) S() int {
	return it.x + it.offsetX
}

// T returns the current pixel row.
func (it *SpiralIterator) T() int {
	return it.y + it.offsetY
}

// Count returns the number of pixels produced so far.
func (it *SpiralIterator) Count() int {
	return it.count
}

// All drains the iterator as a sequence of (s, t) pixel coordinates.
//
// Returns:
//   - iter.Seq2[int, int]: the remaining pixels
func (it *SpiralIterator) All() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for it.Next() {
			if !yield(it.S(), it.T()) {
				return
			}
		}
	}
}

func (it *SpiralIterator) inBounds(dx, dy int) bool {
	s, t := dx+it.offsetX, dy+it.offsetY
	return s >= 0 && s < it.w && t >= 0 && t < it.h
}
