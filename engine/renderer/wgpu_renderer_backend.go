package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	drawUniformSize     = 80
	objectIDUniformSize = 16
	// copies from a texture into a buffer need 256-byte aligned rows
	copyRowAlignment = 256
)

// TexturedDrawable is a drawable whose program samples a texture bound at group 2.
type TexturedDrawable interface {
	scene.Drawable

	// TexCoords returns packed uv pairs, one per vertex.
	TexCoords() []float32

	// Texture returns the pixels and sampling parameters of the bound texture.
	Texture() (*common.TextureStagingData, *common.SamplerStagingData)
}

// offscreenTarget is the GPU side of an image attached to a render-to-texture camera.
type offscreenTarget struct {
	width, height int
	bytesPerRow   uint32
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	depthTexture  *wgpu.Texture
	depthView     *wgpu.TextureView
	readback      *wgpu.Buffer
}

func (t *offscreenTarget) release() {
	t.readback.Release()
	t.depthView.Release()
	t.depthTexture.Release()
	t.view.Release()
	t.texture.Release()
}

type meshKey struct {
	drawable scene.Drawable
	stride   uint64
}

type textureKey struct {
	drawable scene.Drawable
	layout   *wgpu.BindGroupLayout
}

type meshEntry struct {
	provider bind_group_provider.BindGroupProvider
	source   *float32
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	width, height    int
	msaaTextureView  *wgpu.TextureView
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for surface stages; offscreen stages are never multisampled

	// Swapchain image held between Render and Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Shared layouts for the camera (group 0) and per-draw (group 1) uniforms
	cameraLayout *wgpu.BindGroupLayout
	drawLayout   *wgpu.BindGroupLayout

	// Per-frame uniform slots, grown on demand and reused across frames
	cameraSlots []bind_group_provider.BindGroupProvider
	drawSlots   []bind_group_provider.BindGroupProvider

	pipelines map[string]pipeline.Pipeline
	meshes    map[meshKey]meshEntry
	textures  map[textureKey]bind_group_provider.BindGroupProvider
	targets   map[*image.RGBA]*offscreenTarget

	index objectid.Index
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend requests an adapter and device. With a nil surface descriptor the
// backend is headless and only renders stages that have a target image.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, index objectid.Index) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:            &sync.Mutex{},
		instance:      wgpu.CreateInstance(nil),
		presentMode:   wgpu.PresentModeImmediate,
		sampleCount:   sampleCount,
		surfaceFormat: wgpu.TextureFormatBGRA8Unorm,
		pipelines:     make(map[string]pipeline.Pipeline),
		meshes:        make(map[meshKey]meshEntry),
		textures:      make(map[textureKey]bind_group_provider.BindGroupProvider),
		targets:       make(map[*image.RGBA]*offscreenTarget),
		index:         index,
	}
	if surfaceDescriptor != nil {
		b.surface = b.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	b.cameraLayout, err = d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: visibility,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 80},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create camera layout: %w", err)
	}
	// binding 1 carries the object identifier; programs that do not read it still share the layout
	b.drawLayout, err = d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Draw Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: drawUniformSize},
			},
			{
				Binding:    1,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: objectIDUniformSize},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draw layout: %w", err)
	}
	return b, nil
}

func (b *wgpuRendererBackendImpl) Configure(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height
	if b.surface == nil || width < 1 || height < 1 {
		return nil
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if count > 1 {
		// The render pass draws into the MSAA texture; the swapchain view is its resolve target.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create msaa texture: %w", err)
		}
		if b.msaaTextureView, err = msaaTexture.CreateView(nil); err != nil {
			return fmt.Errorf("failed to create msaa view: %w", err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	if b.depthTextureView, err = depthTexture.CreateView(nil); err != nil {
		return fmt.Errorf("failed to create depth view: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) Framebuffer() *image.RGBA {
	return nil
}

func (b *wgpuRendererBackendImpl) Render(stages []*RenderStage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	defer encoder.Release()

	var readbacks []*image.RGBA
	drawSlot := 0
	for si, s := range stages {
		var attachment wgpu.RenderPassColorAttachment
		var depthView *wgpu.TextureView
		format, samples := wgpu.TextureFormatRGBA8Unorm, uint32(1)

		if s.Target != nil {
			t, err := b.offscreen(s.Target)
			if err != nil {
				return err
			}
			attachment.View = t.view
			attachment.StoreOp = wgpu.StoreOpStore
			depthView = t.depthView
			readbacks = append(readbacks, s.Target)
		} else {
			if b.surface == nil || b.depthTextureView == nil {
				common.Logger().Debug("stage skipped, no surface", "stage", s.Name)
				continue
			}
			if err := b.acquire(); err != nil {
				return err
			}
			format, samples = b.surfaceFormat, uint32(b.sampleCount)
			if samples > 1 {
				attachment.View = b.msaaTextureView
				attachment.ResolveTarget = b.frameView
				attachment.StoreOp = wgpu.StoreOpDiscard
			} else {
				attachment.View = b.frameView
				attachment.StoreOp = wgpu.StoreOpStore
			}
			depthView = b.depthTextureView
		}

		attachment.LoadOp = wgpu.LoadOpLoad
		if s.ClearMask&camera.ClearColor != 0 {
			attachment.LoadOp = wgpu.LoadOpClear
			attachment.ClearValue = wgpu.Color{
				R: float64(s.ClearColor[0]), G: float64(s.ClearColor[1]),
				B: float64(s.ClearColor[2]), A: float64(s.ClearColor[3]),
			}
		}
		depthLoad := wgpu.LoadOpLoad
		if s.ClearMask&camera.ClearDepth != 0 {
			depthLoad = wgpu.LoadOpClear
		}

		camSlot, err := b.cameraSlot(si)
		if err != nil {
			return err
		}
		uniform := s.CameraUniform()
		b.queue.WriteBuffer(camSlot.Buffer(0), 0, uniform.Marshal())

		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
			DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
				View:            depthView,
				DepthLoadOp:     depthLoad,
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: 1.0,
			},
		})
		if s.Viewport.Width > 0 && s.Viewport.Height > 0 {
			pass.SetViewport(s.Viewport.X, s.Viewport.Y, s.Viewport.Width, s.Viewport.Height, 0, 1)
		}

		for _, it := range s.Sorted() {
			if it.State.Program == nil || len(it.Drawable.Indices()) == 0 {
				continue
			}
			p, err := b.pipelineFor(it, format, samples)
			if err != nil {
				pass.End()
				return err
			}
			mesh, err := b.meshFor(it.Drawable, p)
			if err != nil {
				pass.End()
				return err
			}
			slot, err := b.drawSlotAt(drawSlot)
			if err != nil {
				pass.End()
				return err
			}
			drawSlot++
			b.writeDrawUniforms(slot, it)

			pass.SetPipeline(p.RenderPipeline())
			pass.SetBindGroup(0, camSlot.BindGroup(), nil)
			pass.SetBindGroup(1, slot.BindGroup(), nil)
			if layout := p.BindGroupLayout(2); layout != nil {
				tex, err := b.textureFor(it.Drawable, layout)
				if err != nil {
					pass.End()
					return err
				}
				pass.SetBindGroup(2, tex.BindGroup(), nil)
			}
			pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
			pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			pass.DrawIndexed(uint32(mesh.IndexCount()), 1, 0, 0, 0)
		}
		pass.End()

		if s.Target != nil {
			t := b.targets[s.Target]
			encoder.CopyTextureToBuffer(
				&wgpu.ImageCopyTexture{Texture: t.texture, Aspect: wgpu.TextureAspectAll},
				&wgpu.ImageCopyBuffer{
					Buffer: t.readback,
					Layout: wgpu.TextureDataLayout{BytesPerRow: t.bytesPerRow, RowsPerImage: uint32(t.height)},
				},
				&wgpu.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
			)
		}
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	for _, img := range readbacks {
		if err := b.read(img); err != nil {
			return err
		}
	}
	return nil
}

// acquire takes the next swapchain image if this frame does not hold one yet.
func (b *wgpuRendererBackendImpl) acquire() error {
	if b.frameSurface != nil {
		return nil
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("failed to create surface view: %w", err)
	}
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameView = nil
	b.frameSurface = nil
}

// offscreen returns the GPU target for an attached image, recreating it when the image size changes.
func (b *wgpuRendererBackendImpl) offscreen(img *image.RGBA) (*offscreenTarget, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if t, ok := b.targets[img]; ok {
		if t.width == w && t.height == h {
			return t, nil
		}
		t.release()
		delete(b.targets, img)
	}

	size := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	t := &offscreenTarget{
		width:       w,
		height:      h,
		bytesPerRow: (uint32(w)*4 + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment,
	}
	var err error
	t.texture, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Offscreen Color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create offscreen texture: %w", err)
	}
	if t.view, err = t.texture.CreateView(nil); err != nil {
		return nil, fmt.Errorf("failed to create offscreen view: %w", err)
	}
	t.depthTexture, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Offscreen Depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create offscreen depth texture: %w", err)
	}
	if t.depthView, err = t.depthTexture.CreateView(nil); err != nil {
		return nil, fmt.Errorf("failed to create offscreen depth view: %w", err)
	}
	t.readback, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Offscreen Readback",
		Size:  uint64(t.bytesPerRow) * uint64(h),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readback buffer: %w", err)
	}
	b.targets[img] = t
	common.Logger().Debug("offscreen target created", "width", w, "height", h)
	return t, nil
}

// read maps the readback buffer of an image's target and copies the rows into the image.
func (b *wgpuRendererBackendImpl) read(img *image.RGBA) error {
	t := b.targets[img]
	size := uint64(t.bytesPerRow) * uint64(t.height)

	done := false
	var status wgpu.BufferMapAsyncStatus
	if err := t.readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	}); err != nil {
		return fmt.Errorf("failed to map readback buffer: %w", err)
	}
	for !done {
		b.device.Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("readback mapping failed with status %v", status)
	}

	data := t.readback.GetMappedRange(0, uint(size))
	rowBytes := t.width * 4
	for y := range t.height {
		src := data[y*int(t.bytesPerRow) : y*int(t.bytesPerRow)+rowBytes]
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], src)
	}
	t.readback.Unmap()
	return nil
}

func (b *wgpuRendererBackendImpl) pipelineFor(it DrawItem, format wgpu.TextureFormat, samples uint32) (pipeline.Pipeline, error) {
	p := pipeline.FromState(it.State, it.Drawable.Primitive(), format, samples)
	if cached, ok := b.pipelines[p.PipelineKey()]; ok {
		return cached, nil
	}
	if err := b.createRenderPipeline(p); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.Program().Name(), err)
	}
	b.pipelines[p.PipelineKey()] = p
	return p, nil
}

// createRenderPipeline composes the program, compiles it and builds the pipeline layout from the
// shared camera and draw layouts plus any further groups the module declares.
func (b *wgpuRendererBackendImpl) createRenderPipeline(p pipeline.Pipeline) error {
	prog := p.Program()
	vsEntry, fsEntry := prog.EntryPoint(shader.ShaderTypeVertex), prog.EntryPoint(shader.ShaderTypeFragment)
	if vsEntry == "" || fsEntry == "" {
		return errors.New("both vertex and fragment functions must be installed to create a render pipeline")
	}

	desc, err := prog.Module(p.Defines())
	if err != nil {
		return err
	}
	module, err := b.device.CreateShaderModule(desc)
	if err != nil {
		return err
	}
	src := desc.WGSLDescriptor.Code

	vertexLayout, ok := shader.ParseVertexLayout(src)
	if !ok {
		return errors.New("failed to derive the vertex layout")
	}

	p.SetBindGroupLayout(0, b.cameraLayout)
	p.SetBindGroupLayout(1, b.drawLayout)
	groups := []*wgpu.BindGroupLayout{b.cameraLayout, b.drawLayout}
	declared, _ := shader.ParseBindGroupLayouts(src)
	for g := 2; ; g++ {
		desc, ok := declared[g]
		if !ok {
			break
		}
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		p.SetBindGroupLayout(g, layout)
		groups = append(groups, layout)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            prog.Name(),
		BindGroupLayouts: groups,
	})
	if err != nil {
		return err
	}

	target := wgpu.ColorTargetState{
		Format:    p.ColorFormat(),
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  prog.Name() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: vsEntry,
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fsEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: p.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created)
	common.Logger().Debug("render pipeline created", "program", prog.Name(), "samples", p.SampleCount())
	return nil
}

// meshFor uploads a drawable's geometry in the vertex layout of a pipeline, re-uploading
// when the drawable's vertex array is replaced.
func (b *wgpuRendererBackendImpl) meshFor(d scene.Drawable, p pipeline.Pipeline) (bind_group_provider.BindGroupProvider, error) {
	desc, err := p.Program().Module(p.Defines())
	if err != nil {
		return nil, err
	}
	layout, _ := shader.ParseVertexLayout(desc.WGSLDescriptor.Code)
	key := meshKey{drawable: d, stride: layout.ArrayStride}

	verts := d.Vertices()
	var source *float32
	if len(verts) > 0 {
		source = &verts[0]
	}
	if e, ok := b.meshes[key]; ok {
		if e.source == source {
			return e.provider, nil
		}
		e.provider.Release()
	}

	var uvs []float32
	if td, ok := d.(TexturedDrawable); ok {
		uvs = td.TexCoords()
	}
	n := len(verts) / 3
	floats := int(layout.ArrayStride / 4)
	data := make([]float32, 0, n*floats)
	for i := range n {
		data = append(data, verts[i*3], verts[i*3+1], verts[i*3+2])
		for k := 3; k < floats; k++ {
			var v float32
			if j := i*2 + k - 3; k < 5 && j < len(uvs) {
				v = uvs[j]
			}
			data = append(data, v)
		}
	}

	mesh := bind_group_provider.NewBindGroupProvider(d.Name() + " Mesh")
	if err := b.initMeshBuffers(mesh, common.SliceToBytes(data), common.SliceToBytes(d.Indices()), len(d.Indices())); err != nil {
		mesh.Release()
		return nil, err
	}
	b.meshes[key] = meshEntry{provider: mesh, source: source}
	return mesh, nil
}

func (b *wgpuRendererBackendImpl) initMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}
	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}
	provider.SetIndexCount(indexCount)
	return nil
}

func (b *wgpuRendererBackendImpl) cameraSlot(i int) (bind_group_provider.BindGroupProvider, error) {
	for len(b.cameraSlots) <= i {
		slot, err := b.uniformSlot(fmt.Sprintf("Camera %d", len(b.cameraSlots)), 0, b.cameraLayout, 80)
		if err != nil {
			return nil, err
		}
		b.cameraSlots = append(b.cameraSlots, slot)
	}
	return b.cameraSlots[i], nil
}

func (b *wgpuRendererBackendImpl) drawSlotAt(i int) (bind_group_provider.BindGroupProvider, error) {
	for len(b.drawSlots) <= i {
		slot, err := b.uniformSlot(fmt.Sprintf("Draw %d", len(b.drawSlots)), 1, b.drawLayout, drawUniformSize, objectIDUniformSize)
		if err != nil {
			return nil, err
		}
		b.drawSlots = append(b.drawSlots, slot)
	}
	return b.drawSlots[i], nil
}

// uniformSlot creates a provider with one uniform buffer per binding and a bind group over them.
func (b *wgpuRendererBackendImpl) uniformSlot(label string, group uint32, layout *wgpu.BindGroupLayout, sizes ...uint64) (bind_group_provider.BindGroupProvider, error) {
	provider := bind_group_provider.NewBindGroupProvider(label,
		bind_group_provider.WithGroup(group),
		bind_group_provider.WithSharedLayout(layout),
	)
	entries := make([]wgpu.BindGroupEntry, len(sizes))
	for i, size := range sizes {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + " Buffer",
			Size:  size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			provider.Release()
			return nil, err
		}
		provider.SetBuffer(i, buf)
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: buf, Size: wgpu.WholeSize}
	}
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		provider.Release()
		return nil, err
	}
	provider.SetBindGroup(bindGroup)
	return provider, nil
}

// writeDrawUniforms queues the model matrix, color and object identifier of one draw.
func (b *wgpuRendererBackendImpl) writeDrawUniforms(slot bind_group_provider.BindGroupProvider, it DrawItem) {
	draw := make([]byte, drawUniformSize)
	for i, v := range it.Model {
		binary.LittleEndian.PutUint32(draw[i*4:], math.Float32bits(v))
	}
	for i, v := range it.Drawable.Color() {
		binary.LittleEndian.PutUint32(draw[64+i*4:], math.Float32bits(v))
	}
	id := make([]byte, objectIDUniformSize)
	binary.LittleEndian.PutUint32(id, it.State.UniformUint(b.index.ObjectIDUniformName(), 0))

	for _, w := range []bind_group_provider.BufferWrite{
		{Provider: slot, Binding: 0, Data: draw},
		{Provider: slot, Binding: 1, Data: id},
	} {
		if w.Valid() {
			b.queue.WriteBuffer(w.Provider.Buffer(w.Binding), w.Offset, w.Data)
		}
	}
}

// textureFor uploads a textured drawable's texture and builds its group 2 bind group.
// Drawables without a texture get a single opaque white texel.
func (b *wgpuRendererBackendImpl) textureFor(d scene.Drawable, layout *wgpu.BindGroupLayout) (bind_group_provider.BindGroupProvider, error) {
	key := textureKey{drawable: d, layout: layout}
	if p, ok := b.textures[key]; ok {
		return p, nil
	}

	staging := &common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}
	sampler := &common.SamplerStagingData{}
	if td, ok := d.(TexturedDrawable); ok {
		if t, s := td.Texture(); t != nil {
			staging = t
			if s != nil {
				sampler = s
			}
		}
	}

	provider := bind_group_provider.NewBindGroupProvider(d.Name()+" Texture",
		bind_group_provider.WithGroup(2),
		bind_group_provider.WithSharedLayout(layout),
	)
	if err := b.initTextureView(provider, 0, *staging); err != nil {
		provider.Release()
		return nil, err
	}
	if err := b.initSampler(provider, 1, *sampler); err != nil {
		provider.Release()
		return nil, err
	}
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  provider.Label() + " Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: provider.TextureView(0)},
			{Binding: 1, Sampler: provider.Sampler(1)},
		},
	})
	if err != nil {
		provider.Release()
		return nil, err
	}
	provider.SetBindGroup(bindGroup)
	b.textures[key] = provider
	return provider, nil
}

func (b *wgpuRendererBackendImpl) initTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	size := wgpu.Extent3D{Width: stagingData.Width, Height: stagingData.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label(),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: stagingData.Width * 4, RowsPerImage: stagingData.Height},
		&size,
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(bindingKey, tex, view)
	return nil
}

func (b *wgpuRendererBackendImpl) initSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
		Compare:       samplerStagingData.Compare,
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	clear(b.pipelines)
	for _, m := range b.meshes {
		m.provider.Release()
	}
	clear(b.meshes)
	for _, t := range b.textures {
		t.Release()
	}
	clear(b.textures)
	for _, t := range b.targets {
		t.release()
	}
	clear(b.targets)
	for _, s := range append(b.cameraSlots, b.drawSlots...) {
		s.Release()
	}
	b.cameraSlots, b.drawSlots = nil, nil
	b.cameraLayout.Release()
	b.drawLayout.Release()
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
	}
	b.device.Release()
	b.adapter.Release()
	if b.surface != nil {
		b.surface.Release()
	}
	b.instance.Release()
}
