package loader

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/picker"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/text"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
	"github.com/chewxy/math32"
)

// LoaderBackendType identifies the scene file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeYAML selects the YAML scene document backend.
	BackendTypeYAML LoaderBackendType = iota
)

// Demo is a small scene document with boxes, quads, a transparent pane, a nested group and
// a text label, all pickable.
//
//go:embed assets/demo.yaml
var Demo []byte

// Scene is a loaded scene: its graph, a view over it and the picker when picking is enabled.
type Scene struct {
	Name   string
	Root   *scene.Group
	View   *view.View
	Picker picker.Picker // nil when the document has no picker section

	// Objects maps object names to the nodes registered in the object index.
	Objects map[string]scene.Node
	// IDs maps object names to their identifiers.
	IDs map[string]objectid.ObjectID
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	index    objectid.Index
	viewport common.Viewport

	sceneCache map[string]*Scene

	backend loaderBackend
}

// Loader builds scene graphs from scene description files and caches the results.
// Pickable objects are registered in the loader's object index as they are built.
type Loader interface {
	// Load reads and builds a scene file. A scene already loaded from the same path is
	// returned from the cache.
	//
	// Parameters:
	//   - path: the file path of the scene document (.yaml or .yml)
	//
	// Returns:
	//   - *Scene: the loaded scene
	//   - error: error if the file cannot be read or is malformed
	Load(path string) (*Scene, error)

	// LoadReader builds a scene from a reader and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded scene
	//   - r: the reader providing the document
	//
	// Returns:
	//   - *Scene: the loaded scene
	//   - error: error if the document is malformed
	LoadReader(name string, r io.Reader) (*Scene, error)

	// Get retrieves a cached scene by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Scene: the cached scene or nil
	Get(name string) *Scene

	// Index returns the object index loaded objects are registered in.
	//
	// Returns:
	//   - objectid.Index: the object index
	Index() objectid.Index
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeYAML)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		index:      objectid.Get(),
		viewport:   common.Viewport{Width: 800, Height: 600},
		sceneCache: make(map[string]*Scene),
	}

	switch backendType {
	case BackendTypeYAML:
		l.backend = newYAMLLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	if err := l.checkExtension(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.LoadReader(path, bytes.NewReader(data))
}

func (l *loader) LoadReader(name string, r io.Reader) (*Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	if l.backend == nil {
		return nil, fmt.Errorf("loader has no backend")
	}
	doc, err := l.backend.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	s, err := l.build(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build %q: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// another goroutine may have loaded the same scene meanwhile
	if cached, ok := l.sceneCache[name]; ok {
		l.release(s)
		return cached, nil
	}
	l.sceneCache[name] = s
	common.Logger().Info("scene loaded", "name", name, "objects", len(s.Objects), "picking", s.Picker != nil)
	return s, nil
}

func (l *loader) Get(name string) *Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sceneCache[name]
}

func (l *loader) Index() objectid.Index {
	return l.index
}

// checkExtension rejects files the YAML backend cannot read.
func (l *loader) checkExtension(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("unsupported scene format: %s", ext)
	}
}

// release unregisters the identifiers of a scene that will not be used.
func (l *loader) release(s *Scene) {
	for _, id := range s.IDs {
		l.index.Remove(id)
	}
}

// build turns a document into a scene graph, view and optional picker.
func (l *loader) build(doc *Document) (*Scene, error) {
	s := &Scene{
		Name:    doc.Name,
		Root:    scene.NewGroup(doc.Name),
		Objects: make(map[string]scene.Node),
		IDs:     make(map[string]objectid.ObjectID),
	}
	if s.Name == "" {
		s.Name = "scene"
		s.Root.SetName(s.Name)
	}

	counter := 0
	for i := range doc.Objects {
		n, err := l.buildObject(s, &doc.Objects[i], &counter)
		if err != nil {
			l.release(s)
			return nil, err
		}
		s.Root.AddChild(n)
	}

	s.View = view.NewView(
		view.WithName(s.Name),
		view.WithCamera(l.buildCamera(doc.Camera)),
		view.WithSceneData(s.Root),
	)

	if doc.Picker != nil {
		opts := []picker.PickerBuilderOption{picker.WithIndex(l.index)}
		if doc.Picker.RTTSize > 0 {
			opts = append(opts, picker.WithRTTSize(doc.Picker.RTTSize))
		}
		if doc.Picker.Buffer > 0 {
			opts = append(opts, picker.WithBuffer(doc.Picker.Buffer))
		}
		s.Picker = picker.NewPicker(opts...)
		s.Root.AddChild(s.Picker)
		s.Picker.SetView(s.View)
	}
	return s, nil
}

func (l *loader) buildCamera(doc CameraDoc) camera.Camera {
	eye, target := [3]float32(doc.Eye), [3]float32(doc.Target)
	if eye == target {
		eye = [3]float32{target[0], target[1], target[2] + 5}
	}
	fov := doc.Fov
	if fov <= 0 {
		fov = 45
	}
	near, far := doc.Near, doc.Far
	if near <= 0 {
		near = 0.1
	}
	if far <= near {
		far = max(100, near*2)
	}
	aspect := float32(1)
	if l.viewport.Height > 0 {
		aspect = l.viewport.Width / l.viewport.Height
	}

	opts := []camera.CameraBuilderOption{
		camera.WithViewport(l.viewport),
		camera.WithPerspective(fov*math32.Pi/180, aspect, near, far),
		camera.WithLookAt(eye, target),
	}
	if doc.ClearColor != nil {
		opts = append(opts, camera.WithClearColor(*doc.ClearColor))
	}
	return camera.NewCamera(opts...)
}

// buildObject builds one object and its children. Objects with a placement are wrapped in
// a Transform carrying the object name. The outermost node of a pickable object is the one
// registered, so the identifier covers the whole object unless a child registers its own.
func (l *loader) buildObject(s *Scene, doc *ObjectDoc, counter *int) (scene.Node, error) {
	*counter++
	shape := strings.ToLower(doc.Shape)
	if shape == "" {
		shape = "group"
		if doc.Text != "" {
			shape = "text"
		}
	}
	name := doc.Name
	if name == "" {
		name = fmt.Sprintf("%s#%d", shape, *counter)
	}
	if _, dup := s.Objects[name]; dup {
		return nil, fmt.Errorf("duplicate object name %q", name)
	}

	var node scene.Node
	var group *scene.Group
	switch shape {
	case "box", "quad":
		g := scene.NewQuad(name)
		if shape == "box" {
			g = scene.NewBox(name)
		}
		g.SetColor(doc.Color.rgba([4]float32{1, 1, 1, 1}))
		node = g
	case "text":
		t, err := l.buildText(name, doc)
		if err != nil {
			return nil, err
		}
		node = t
	case "group":
		group = scene.NewGroup(name)
		node = group
	default:
		return nil, fmt.Errorf("object %q: unknown shape %q", name, doc.Shape)
	}

	if doc.Position != (Vec3{}) || doc.Rotation != (Vec3{}) || doc.Scale != nil {
		xf := scene.NewTransform(name, node)
		xf.SetPosition(doc.Position[0], doc.Position[1], doc.Position[2])
		const deg = math32.Pi / 180
		xf.SetRotation(doc.Rotation[0]*deg, doc.Rotation[1]*deg, doc.Rotation[2]*deg)
		if doc.Scale != nil {
			xf.SetScale(doc.Scale[0], doc.Scale[1], doc.Scale[2])
		}
		group = &xf.Group
		node = xf
	}

	if len(doc.Children) > 0 {
		if group == nil {
			group = scene.NewGroup(name + "/children")
			node = scene.NewGroup(name, node, group)
		}
		for i := range doc.Children {
			child, err := l.buildObject(s, &doc.Children[i], counter)
			if err != nil {
				return nil, err
			}
			group.AddChild(child)
		}
	}

	// inherited by children
	if doc.Transparent {
		node.GetOrCreateStateSet().SetRenderingHint(state.HintTransparent)
		node.GetOrCreateStateSet().SetMode(state.ModeBlend, state.On)
	}

	pickable := shape != "group"
	if doc.Pickable != nil {
		pickable = *doc.Pickable
	}
	s.Objects[name] = node
	if pickable {
		s.IDs[name] = l.index.Insert(node)
	}
	return node, nil
}

func (l *loader) buildText(name string, doc *ObjectDoc) (*text.Text, error) {
	opts := []text.TextBuilderOption{
		text.WithName(name),
		text.WithColor(doc.Color.rgba([4]float32{1, 1, 1, 1})),
	}
	ts := doc.TextStyle
	if ts.CharacterSize > 0 {
		opts = append(opts, text.WithCharacterSize(ts.CharacterSize))
	}
	if ts.Resolution > 0 {
		opts = append(opts, text.WithFontResolution(ts.Resolution))
	}
	bt, ok := backdropTypes[strings.ToLower(ts.Backdrop)]
	if !ok {
		return nil, fmt.Errorf("object %q: unknown backdrop %q", name, ts.Backdrop)
	}
	if bt != text.BackdropNone {
		opts = append(opts, text.WithBackdrop(bt, ts.BackdropColor.rgba([4]float32{0, 0, 0, 1})))
	}
	return text.NewText(doc.Text, opts...), nil
}

var backdropTypes = map[string]text.BackdropType{
	"":                          text.BackdropNone,
	"none":                      text.BackdropNone,
	"outline":                   text.Outline,
	"drop_shadow_bottom_right":  text.DropShadowBottomRight,
	"drop_shadow_center_right":  text.DropShadowCenterRight,
	"drop_shadow_top_right":     text.DropShadowTopRight,
	"drop_shadow_bottom_center": text.DropShadowBottomCenter,
	"drop_shadow_top_center":    text.DropShadowTopCenter,
	"drop_shadow_bottom_left":   text.DropShadowBottomLeft,
	"drop_shadow_center_left":   text.DropShadowCenterLeft,
	"drop_shadow_top_left":      text.DropShadowTopLeft,
}
