package picker

import (
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

// PickerBuilderOption is a functional option for configuring a Picker.
type PickerBuilderOption func(*pickerImpl)

// WithRTTSize sets the side length of the identifier buffer. Smaller buffers are cheaper to
// render but coarser; a size below 1 disables the picker.
//
// Parameters:
//   - size: the buffer side in pixels (default 256)
//
// Returns:
//   - PickerBuilderOption: a function that sets the buffer size
func WithRTTSize(size int) PickerBuilderOption {
	return func(p *pickerImpl) {
		p.rttSize = size
	}
}

// WithBuffer sets how many rings of pixels around the pointer are searched for an object.
//
// Parameters:
//   - rings: the search radius (default 2, at least 1 is used)
//
// Returns:
//   - PickerBuilderOption: a function that sets the search radius
func WithBuffer(rings int) PickerBuilderOption {
	return func(p *pickerImpl) {
		p.buffer = rings
	}
}

// WithIndex sets the object index that supplies the identifier uniform and shaders.
//
// Parameters:
//   - idx: the index (default objectid.Get())
//
// Returns:
//   - PickerBuilderOption: a function that sets the index
func WithIndex(idx objectid.Index) PickerBuilderOption {
	return func(p *pickerImpl) {
		p.index = idx
	}
}

// WithGraph sets the subgraph rendered into the identifier buffer before a view is bound.
//
// Parameters:
//   - n: the subgraph root
//
// Returns:
//   - PickerBuilderOption: a function that sets the graph
func WithGraph(n scene.Node) PickerBuilderOption {
	return func(p *pickerImpl) {
		p.graph = n
	}
}
