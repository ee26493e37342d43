package pipeline

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string

	// program and defines compose into the single WGSL module used by both stages
	program *shader.Program
	defines map[string]string

	// GPU objects, set by the backend once created
	renderPipeline *wgpu.RenderPipeline
	layouts        map[int]*wgpu.BindGroupLayout

	// Fixed-function render state
	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
	colorFormat       wgpu.TextureFormat
	sampleCount       uint32
}

// Pipeline describes one render pipeline: a shader program, its active defines and the fixed
// function state it is compiled with. Pipelines are created lazily by the backend from the
// render state of each drawable and cached by PipelineKey.
type Pipeline interface {
	// PipelineKey returns the cache key for this Pipeline.
	//
	// Returns:
	//   - string: a key unique to the program, defines and render state
	PipelineKey() string

	// Program returns the shader program compiled into this Pipeline.
	//
	// Returns:
	//   - *shader.Program: the program
	Program() *shader.Program

	// Defines returns the defines the program is composed with.
	//
	// Returns:
	//   - map[string]string: define names and values
	Defines() map[string]string

	// RenderPipeline returns the backend pipeline object, or nil before it is created.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the backend pipeline object.
	//
	// Parameters:
	//   - rp: the GPU pipeline
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// BindGroupLayout returns the layout created for a bind group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if the program declares no such group
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// SetBindGroupLayout stores the layout for a bind group index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - layout: the layout
	SetBindGroupLayout(group int, layout *wgpu.BindGroupLayout)

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask
	BlendState() *wgpu.BlendState
	ColorFormat() wgpu.TextureFormat
	SampleCount() uint32

	// Release releases the GPU objects owned by this Pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline for a program.
// Depth testing and writing are on, blending is off, topology is a triangle list with
// counter-clockwise front faces, and the target is a single-sampled RGBA8 texture.
//
// Parameters:
//   - pipelineKey: the cache key
//   - program: the shader program
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the configured Pipeline
func NewPipeline(pipelineKey string, program *shader.Program, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		program:           program,
		defines:           make(map[string]string),
		layouts:           make(map[int]*wgpu.BindGroupLayout),
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState:        BlendStateFor(state.DefaultBlendFunc),
		colorFormat:       wgpu.TextureFormatRGBA8Unorm,
		sampleCount:       1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromState derives a Pipeline from the effective render state of a drawable.
//
// Parameters:
//   - res: the resolved state; its Program must not be nil
//   - primitive: the drawable's topology
//   - format: the color target format
//   - samples: the color target sample count
//
// Returns:
//   - Pipeline: a pipeline whose key identifies every input
func FromState(res *state.Resolved, primitive scene.PrimitiveType, format wgpu.TextureFormat, samples uint32) Pipeline {
	defines := res.ActiveDefines()
	opts := []PipelineBuilderOption{
		WithDefines(defines),
		WithDepthTestEnabled(res.Enabled(state.ModeDepthTest)),
		WithDepthWriteEnabled(res.Enabled(state.ModeDepthTest)),
		WithBlendEnabled(res.Enabled(state.ModeBlend)),
		WithBlendState(BlendStateFor(res.BlendFunc)),
		WithTopology(topologyFor(primitive)),
		WithColorFormat(format),
		WithSampleCount(samples),
	}
	if res.Enabled(state.ModeCullFace) {
		opts = append(opts, WithCullMode(wgpu.CullModeBack))
	}

	var key strings.Builder
	fmt.Fprintf(&key, "%s|p%d|f%d|s%d", res.Program.Name(), primitive, format, samples)
	for _, m := range []state.Mode{state.ModeDepthTest, state.ModeBlend, state.ModeCullFace} {
		fmt.Fprintf(&key, "|%s=%t", m, res.Enabled(m))
	}
	if res.Enabled(state.ModeBlend) {
		fmt.Fprintf(&key, "|bf%v", res.BlendFunc)
	}
	for _, name := range slices.Sorted(maps.Keys(defines)) {
		fmt.Fprintf(&key, "|%s=%s", name, defines[name])
	}
	// programs with the same name but different function sets must not share a pipeline
	fmt.Fprintf(&key, "|prog%p", res.Program)

	return NewPipeline(key.String(), res.Program, opts...)
}

// BlendStateFor converts a state blend function to a WGPU blend state with additive operations.
//
// Parameters:
//   - bf: the blend function
//
// Returns:
//   - *wgpu.BlendState: the equivalent blend state
func BlendStateFor(bf state.BlendFunc) *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: blendFactorFor(bf.SrcRGB),
			DstFactor: blendFactorFor(bf.DstRGB),
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: blendFactorFor(bf.SrcAlpha),
			DstFactor: blendFactorFor(bf.DstAlpha),
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func blendFactorFor(f state.BlendFactor) wgpu.BlendFactor {
	switch f {
	case state.BlendOne:
		return wgpu.BlendFactorOne
	case state.BlendSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case state.BlendOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case state.BlendDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case state.BlendOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	case state.BlendSrcColor:
		return wgpu.BlendFactorSrc
	case state.BlendOneMinusSrcColor:
		return wgpu.BlendFactorOneMinusSrc
	default:
		return wgpu.BlendFactorZero
	}
}

func topologyFor(p scene.PrimitiveType) wgpu.PrimitiveTopology {
	switch p {
	case scene.PrimitiveLines:
		return wgpu.PrimitiveTopologyLineList
	case scene.PrimitivePoints:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() *shader.Program {
	return p.program
}

func (p *pipeline) Defines() map[string]string {
	return p.defines
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	return p.layouts[group]
}

func (p *pipeline) SetBindGroupLayout(group int, layout *wgpu.BindGroupLayout) {
	p.layouts[group] = layout
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	return p.colorFormat
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	clear(p.layouts)
}
