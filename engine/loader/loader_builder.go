package loader

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithIndex sets the object index pickable objects are registered in.
// Defaults to the shared index returned by objectid.Get.
//
// Parameters:
//   - idx: the object index
//
// Returns:
//   - LoaderBuilderOption: a function that applies the index option to a loader
func WithIndex(idx objectid.Index) LoaderBuilderOption {
	return func(l *loader) {
		if idx != nil {
			l.index = idx
		}
	}
}

// WithViewport sets the viewport of the cameras created for loaded scenes.
//
// Parameters:
//   - vp: the viewport in window pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the viewport option to a loader
func WithViewport(vp common.Viewport) LoaderBuilderOption {
	return func(l *loader) {
		l.viewport = vp
	}
}

// WithScene pre-populates the scene cache.
//
// Parameters:
//   - key: the cache key for the scene
//   - s: the scene to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(key string, s *Scene) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneCache[key] = s
	}
}
