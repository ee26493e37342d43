package state

import (
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
)

// Mode identifies a fixed-function capability that can be switched on or off on a StateSet.
type Mode int

const (
	// ModeLighting enables per-fragment lighting in the default shaders.
	ModeLighting Mode = iota
	// ModeCullFace discards back-facing triangles.
	ModeCullFace
	// ModeAlphaTest discards fragments whose alpha is below the alpha reference.
	ModeAlphaTest
	// ModePointSmooth antialiases point primitives.
	ModePointSmooth
	// ModeLineSmooth antialiases line primitives.
	ModeLineSmooth
	// ModeBlend enables color blending with the active BlendFunc.
	ModeBlend
	// ModeTexture2D enables sampling of the bound 2D texture.
	ModeTexture2D
	// ModeDepthTest enables depth testing.
	ModeDepthTest
)

var modeNames = map[Mode]string{
	ModeLighting:    "lighting",
	ModeCullFace:    "cull_face",
	ModeAlphaTest:   "alpha_test",
	ModePointSmooth: "point_smooth",
	ModeLineSmooth:  "line_smooth",
	ModeBlend:       "blend",
	ModeTexture2D:   "texture_2d",
	ModeDepthTest:   "depth_test",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unknown"
}

// Value is a mode value combined with precedence flags.
type Value uint8

const (
	// Off disables the mode. It is the zero value.
	Off Value = 0
	// On enables the mode.
	On Value = 1 << 0
	// Override forces this value onto every descendant that does not carry equal or higher precedence.
	Override Value = 1 << 1
	// Protected raises the precedence of this value so that a parent Override of lower precedence cannot replace it.
	Protected Value = 1 << 2
)

// Enabled reports whether the On bit is set.
func (v Value) Enabled() bool {
	return v&On != 0
}

// Forced reports whether the Override bit is set.
func (v Value) Forced() bool {
	return v&Override != 0
}

// Precedence ranks a value for conflict resolution: plain 0, Override 1, Protected 2, Override|Protected 3.
func (v Value) Precedence() int {
	p := 0
	if v&Override != 0 {
		p++
	}
	if v&Protected != 0 {
		p += 2
	}
	return p
}

// childWins applies the stacking rule: a child replaces its parent's value unless the parent
// value is forced and the child carries lower precedence.
func childWins(parent, child Value) bool {
	if !parent.Forced() {
		return true
	}
	return child.Precedence() >= parent.Precedence()
}

// BlendFactor selects a source or destination blend factor.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcColor
	BlendOneMinusSrcColor
)

// BlendFunc describes separate color and alpha blend factors.
type BlendFunc struct {
	SrcRGB, DstRGB     BlendFactor
	SrcAlpha, DstAlpha BlendFactor
}

// DefaultBlendFunc is standard alpha blending.
var DefaultBlendFunc = BlendFunc{
	SrcRGB: BlendSrcAlpha, DstRGB: BlendOneMinusSrcAlpha,
	SrcAlpha: BlendOne, DstAlpha: BlendOneMinusSrcAlpha,
}

// Define is a named shader preprocessor define carried by a StateSet.
type Define struct {
	Name  string
	Value string
	Flags Value
}

// Uniform is a named shader uniform value. Supported value types are uint32, int32,
// float32 and [4]float32.
type Uniform struct {
	Name  string
	Value any
	Flags Value
}

// RenderingHint places drawables into an ordered render bin.
type RenderingHint int

const (
	// HintDefault inherits the bin from the parent state.
	HintDefault RenderingHint = iota
	// HintOpaque draws in the opaque bin, before transparent drawables.
	HintOpaque
	// HintTransparent draws in the transparent bin, after opaque drawables.
	HintTransparent
)

type flagged[T any] struct {
	value T
	flags Value
}

// StateSet is a bundle of render state attached to a scene node or drawable.
// Values set on a StateSet apply to the node and its descendants, resolved through a Stack.
type StateSet struct {
	mu *sync.Mutex

	name      string
	modes     map[Mode]Value
	blendFunc *flagged[BlendFunc]
	program   *flagged[*shader.Program]
	defines   map[string]Define
	uniforms  map[string]Uniform
	hint      RenderingHint
}

// NewStateSet creates an empty StateSet.
//
// Parameters:
//   - name: a debug name, may be empty
//
// Returns:
//   - *StateSet: the new state set
func NewStateSet(name string) *StateSet {
	return &StateSet{
		mu:       &sync.Mutex{},
		name:     name,
		modes:    make(map[Mode]Value),
		defines:  make(map[string]Define),
		uniforms: make(map[string]Uniform),
	}
}

// Name returns the debug name.
func (s *StateSet) Name() string {
	return s.name
}

// SetMode sets a mode value with its precedence flags.
//
// Parameters:
//   - m: the mode to set
//   - v: On or Off, optionally combined with Override and Protected
func (s *StateSet) SetMode(m Mode, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[m] = v
}

// Mode returns the value set for a mode and whether it was set on this StateSet.
func (s *StateSet) Mode(m Mode) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.modes[m]
	return v, ok
}

// SetBlendFunc sets the blend function attribute.
//
// Parameters:
//   - bf: the blend factors
//   - flags: precedence flags (Override, Protected)
func (s *StateSet) SetBlendFunc(bf BlendFunc, flags Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blendFunc = &flagged[BlendFunc]{value: bf, flags: flags}
}

// BlendFunc returns the blend function set on this StateSet, if any.
func (s *StateSet) BlendFunc() (BlendFunc, Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blendFunc == nil {
		return BlendFunc{}, 0, false
	}
	return s.blendFunc.value, s.blendFunc.flags, true
}

// SetProgram installs a shader program for this node and its descendants.
//
// Parameters:
//   - p: the program
//   - flags: precedence flags (Override, Protected)
func (s *StateSet) SetProgram(p *shader.Program, flags Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = &flagged[*shader.Program]{value: p, flags: flags}
}

// Program returns the program installed on this StateSet, or nil.
func (s *StateSet) Program() *shader.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return nil
	}
	return s.program.value
}

// SetDefine sets a shader define. Value may be empty for presence-only defines.
//
// Parameters:
//   - name: the define name
//   - value: the define value
//   - flags: On or Off plus precedence flags
func (s *StateSet) SetDefine(name, value string, flags Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defines[name] = Define{Name: name, Value: value, Flags: flags}
}

// Defines returns a copy of the defines sorted by name.
func (s *StateSet) Defines() []Define {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Define, 0, len(s.defines))
	for _, k := range slices.Sorted(maps.Keys(s.defines)) {
		out = append(out, s.defines[k])
	}
	return out
}

// AddUniform sets a uniform value.
//
// Parameters:
//   - name: the uniform name
//   - value: uint32, int32, float32 or [4]float32
//   - flags: precedence flags
func (s *StateSet) AddUniform(name string, value any, flags Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uniforms[name] = Uniform{Name: name, Value: value, Flags: flags}
}

// Uniform returns the uniform with the given name and whether it was set.
func (s *StateSet) Uniform(name string) (Uniform, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uniforms[name]
	return u, ok
}

// SetRenderingHint selects the render bin for drawables under this StateSet.
func (s *StateSet) SetRenderingHint(h RenderingHint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = h
}

// RenderingHint returns the render bin hint.
func (s *StateSet) RenderingHint() RenderingHint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hint
}
