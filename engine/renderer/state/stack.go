package state

import (
	"maps"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
)

// Resolved is the effective render state for one drawable after every StateSet on its
// path from the root has been applied.
type Resolved struct {
	Modes     map[Mode]Value
	BlendFunc BlendFunc
	blendFlag Value
	Program   *shader.Program
	progFlag  Value
	Defines   map[string]Define
	Uniforms  map[string]Uniform
	Hint      RenderingHint
}

// NewResolved returns the root state: nothing set, depth testing on and standard alpha blending factors.
func NewResolved() *Resolved {
	return &Resolved{
		Modes:     map[Mode]Value{ModeDepthTest: On, ModeLighting: On},
		BlendFunc: DefaultBlendFunc,
		Defines:   make(map[string]Define),
		Uniforms:  make(map[string]Uniform),
	}
}

// Enabled reports whether a mode is on.
func (r *Resolved) Enabled(m Mode) bool {
	return r.Modes[m].Enabled()
}

// Define returns the value of an active define. Defines set to Off are reported as absent.
func (r *Resolved) Define(name string) (string, bool) {
	d, ok := r.Defines[name]
	if !ok || !d.Flags.Enabled() {
		return "", false
	}
	return d.Value, true
}

// ActiveDefines returns the name/value pairs of all defines that are switched on.
func (r *Resolved) ActiveDefines() map[string]string {
	out := make(map[string]string, len(r.Defines))
	for k, d := range r.Defines {
		if d.Flags.Enabled() {
			out[k] = d.Value
		}
	}
	return out
}

// UniformUint returns a uint32 uniform, or def if it is missing or of another type.
func (r *Resolved) UniformUint(name string, def uint32) uint32 {
	if u, ok := r.Uniforms[name]; ok {
		if v, ok := u.Value.(uint32); ok {
			return v
		}
	}
	return def
}

func (r *Resolved) clone() *Resolved {
	c := *r
	c.Modes = maps.Clone(r.Modes)
	c.Defines = maps.Clone(r.Defines)
	c.Uniforms = maps.Clone(r.Uniforms)
	return &c
}

// apply merges a child StateSet into a copy of r using the precedence rule.
func (r *Resolved) apply(s *StateSet) *Resolved {
	out := r.clone()
	s.mu.Lock()
	defer s.mu.Unlock()

	for m, v := range s.modes {
		if parent, ok := out.Modes[m]; !ok || childWins(parent, v) {
			out.Modes[m] = v
		}
	}
	if s.blendFunc != nil && childWins(out.blendFlag, s.blendFunc.flags) {
		out.BlendFunc = s.blendFunc.value
		out.blendFlag = s.blendFunc.flags
	}
	if s.program != nil && childWins(out.progFlag, s.program.flags) {
		out.Program = s.program.value
		out.progFlag = s.program.flags
	}
	for k, d := range s.defines {
		if parent, ok := out.Defines[k]; !ok || childWins(parent.Flags, d.Flags) {
			out.Defines[k] = d
		}
	}
	for k, u := range s.uniforms {
		if parent, ok := out.Uniforms[k]; !ok || childWins(parent.Flags, u.Flags) {
			out.Uniforms[k] = u
		}
	}
	if s.hint != HintDefault {
		out.Hint = s.hint
	}
	return out
}

// Stack accumulates StateSets during a traversal.
// The zero value is not usable; create one with NewStack.
type Stack struct {
	frames []*Resolved
}

// NewStack creates a Stack whose bottom frame is the given base state, or NewResolved() if base is nil.
//
// Parameters:
//   - base: the root state
//
// Returns:
//   - *Stack: the new stack
func NewStack(base *Resolved) *Stack {
	if base == nil {
		base = NewResolved()
	}
	return &Stack{frames: []*Resolved{base}}
}

// Push applies a StateSet on top of the current state. A nil StateSet pushes an unchanged frame
// so every Push can be paired with a Pop.
//
// Parameters:
//   - s: the StateSet to apply, may be nil
func (st *Stack) Push(s *StateSet) {
	top := st.Top()
	if s == nil {
		st.frames = append(st.frames, top)
		return
	}
	st.frames = append(st.frames, top.apply(s))
}

// Pop removes the most recently pushed frame. The base frame is never removed.
func (st *Stack) Pop() {
	if len(st.frames) > 1 {
		st.frames = st.frames[:len(st.frames)-1]
	}
}

// Top returns the current effective state. The result must be treated as read-only.
func (st *Stack) Top() *Resolved {
	return st.frames[len(st.frames)-1]
}

// Depth returns the number of pushed frames above the base.
func (st *Stack) Depth() int {
	return len(st.frames) - 1
}
