package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

func resolve(sets ...*state.StateSet) *state.Resolved {
	st := state.NewStack(nil)
	for _, s := range sets {
		st.Push(s)
	}
	return st.Top()
}

func TestFromStateKey(t *testing.T) {
	prog := shader.NewProgram("p")
	base := state.NewStateSet("base")
	base.SetProgram(prog, state.On)

	lit := state.NewStateSet("lit")
	lit.SetDefine("OE_LIGHTING", "", state.On)

	blended := state.NewStateSet("blend")
	blended.SetMode(state.ModeBlend, state.On)

	a := FromState(resolve(base), scene.PrimitiveTriangles, wgpu.TextureFormatRGBA8Unorm, 1)
	tests := []struct {
		name string
		p    Pipeline
		same bool
	}{
		{"identical state", FromState(resolve(base), scene.PrimitiveTriangles, wgpu.TextureFormatRGBA8Unorm, 1), true},
		{"define added", FromState(resolve(base, lit), scene.PrimitiveTriangles, wgpu.TextureFormatRGBA8Unorm, 1), false},
		{"blending", FromState(resolve(base, blended), scene.PrimitiveTriangles, wgpu.TextureFormatRGBA8Unorm, 1), false},
		{"topology", FromState(resolve(base), scene.PrimitiveLines, wgpu.TextureFormatRGBA8Unorm, 1), false},
		{"sample count", FromState(resolve(base), scene.PrimitiveTriangles, wgpu.TextureFormatRGBA8Unorm, 4), false},
		{"format", FromState(resolve(base), scene.PrimitiveTriangles, wgpu.TextureFormatBGRA8Unorm, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.PipelineKey() == a.PipelineKey(); got != tt.same {
				t.Errorf("keys equal = %v, want %v\n%s\n%s", got, tt.same, a.PipelineKey(), tt.p.PipelineKey())
			}
		})
	}
}

func TestFromStateRenderState(t *testing.T) {
	prog := shader.NewProgram("p")
	ss := state.NewStateSet("s")
	ss.SetProgram(prog, state.On)
	ss.SetMode(state.ModeBlend, state.On)
	ss.SetMode(state.ModeCullFace, state.On)
	ss.SetBlendFunc(state.BlendFunc{
		SrcRGB: state.BlendOne, DstRGB: state.BlendZero,
		SrcAlpha: state.BlendOne, DstAlpha: state.BlendZero,
	}, state.On)

	p := FromState(resolve(ss), scene.PrimitivePoints, wgpu.TextureFormatRGBA8Unorm, 1)
	if !p.BlendEnabled() || p.CullMode() != wgpu.CullModeBack || p.Topology() != wgpu.PrimitiveTopologyPointList {
		t.Errorf("blend=%v cull=%v topology=%v", p.BlendEnabled(), p.CullMode(), p.Topology())
	}
	bs := p.BlendState()
	if bs.Color.SrcFactor != wgpu.BlendFactorOne || bs.Color.DstFactor != wgpu.BlendFactorZero {
		t.Errorf("blend state = %+v, want ONE/ZERO", bs.Color)
	}
	if p.Program() != prog {
		t.Error("program not carried")
	}
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("k", nil, WithSampleCount(0))
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() || p.BlendEnabled() {
		t.Error("unexpected depth or blend defaults")
	}
	if p.SampleCount() != 1 {
		t.Errorf("sample count = %d, want clamped to 1", p.SampleCount())
	}
	if p.FrontFace() != wgpu.FrontFaceCCW || p.WriteMask() != wgpu.ColorWriteMaskAll {
		t.Error("unexpected front face or write mask")
	}
}
