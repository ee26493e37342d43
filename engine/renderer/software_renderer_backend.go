package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/objectid"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/chewxy/math32"
	"golang.org/x/image/vector"
)

// lightDir matches the light direction of the default fragment shader, normalized.
var lightDir = [3]float32{0.4 / 1.0770330, 0.8 / 1.0770330, 0.6 / 1.0770330}

// softwareRendererBackend rasterizes stages on the CPU. Coverage masks are computed in
// parallel on a worker pool; depth testing and blending run serially in draw order.
type softwareRendererBackend struct {
	mu *sync.Mutex

	framebuffer *image.RGBA
	depth       map[*image.RGBA][]float32

	pool  worker.DynamicWorkerPool
	index objectid.Index
}

var _ RendererBackend = &softwareRendererBackend{}

// fragmentCoverage is the rasterized footprint of one primitive.
type fragmentCoverage struct {
	rect image.Rectangle
	mask *image.Alpha

	// window-space corners for depth interpolation; flat primitives use z[0] everywhere
	x, y, z [3]float32
	flat    bool
	shade   float32
}

func newSoftwareRendererBackend(workers int, index objectid.Index) *softwareRendererBackend {
	return &softwareRendererBackend{
		mu:    &sync.Mutex{},
		depth: make(map[*image.RGBA][]float32),
		pool:  worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		index: index,
	}
}

func (b *softwareRendererBackend) Configure(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width < 1 || height < 1 {
		b.framebuffer = nil
		return nil
	}
	if b.framebuffer != nil && b.framebuffer.Rect.Dx() == width && b.framebuffer.Rect.Dy() == height {
		return nil
	}
	if b.framebuffer != nil {
		delete(b.depth, b.framebuffer)
	}
	b.framebuffer = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

func (b *softwareRendererBackend) Framebuffer() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.framebuffer
}

func (b *softwareRendererBackend) SetPresentMode(PresentMode) {}

func (b *softwareRendererBackend) Present() {}

func (b *softwareRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.framebuffer = nil
	clear(b.depth)
}

func (b *softwareRendererBackend) Render(stages []*RenderStage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range stages {
		target := s.Target
		if target == nil {
			target = b.framebuffer
		}
		if target == nil {
			common.Logger().Debug("stage skipped, no target", "stage", s.Name)
			continue
		}
		b.renderStage(s, target)
	}
	return nil
}

func (b *softwareRendererBackend) renderStage(s *RenderStage, target *image.RGBA) {
	bounds := target.Bounds()
	vp := image.Rect(
		int(s.Viewport.X), int(s.Viewport.Y),
		int(s.Viewport.X+s.Viewport.Width), int(s.Viewport.Y+s.Viewport.Height),
	).Intersect(bounds)
	if vp.Empty() {
		return
	}

	depth := b.depthFor(target)
	if s.ClearMask&camera.ClearColor != 0 {
		draw.Draw(target, vp, image.NewUniform(toRGBA(s.ClearColor)), image.Point{}, draw.Src)
	}
	if s.ClearMask&camera.ClearDepth != 0 {
		for y := vp.Min.Y; y < vp.Max.Y; y++ {
			row := depth[(y-bounds.Min.Y)*bounds.Dx():]
			for x := vp.Min.X; x < vp.Max.X; x++ {
				row[x-bounds.Min.X] = 1
			}
		}
	}

	items := s.Sorted()
	coverage := make([][]fragmentCoverage, len(items))
	vpMVP := s.ViewProjection()

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		idx := i
		b.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				coverage[idx] = rasterize(s, items[idx], vpMVP, vp)
				return nil, nil
			},
		})
	}
	wg.Wait()

	for i, it := range items {
		b.composite(s, it, coverage[i], target, depth)
	}
}

func (b *softwareRendererBackend) depthFor(target *image.RGBA) []float32 {
	n := target.Rect.Dx() * target.Rect.Dy()
	d, ok := b.depth[target]
	if !ok || len(d) != n {
		d = make([]float32, n)
		for i := range d {
			d[i] = 1
		}
		b.depth[target] = d
	}
	return d
}

// rasterize projects a drawable's primitives into window space and computes their coverage.
func rasterize(s *RenderStage, it DrawItem, viewProj [16]float32, vp image.Rectangle) []fragmentCoverage {
	var mvp [16]float32
	common.Mul4(mvp[:], viewProj[:], it.Model[:])

	verts := it.Drawable.Vertices()
	n := len(verts) / 3
	wx := make([]float32, n)
	wy := make([]float32, n)
	wz := make([]float32, n)
	ok := make([]bool, n)
	world := make([][3]float32, n)
	for i := range n {
		x, y, z := verts[i*3], verts[i*3+1], verts[i*3+2]
		c := common.TransformPoint(mvp[:], x, y, z)
		wp := common.TransformPoint(it.Model[:], x, y, z)
		world[i] = [3]float32{wp[0], wp[1], wp[2]}
		if c[3] <= 1e-6 {
			continue
		}
		ndcX, ndcY, ndcZ := c[0]/c[3], c[1]/c[3], c[2]/c[3]
		wx[i] = s.Viewport.X + (ndcX+1)/2*s.Viewport.Width
		wy[i] = s.Viewport.Y + (1-ndcY)/2*s.Viewport.Height
		wz[i] = ndcZ
		ok[i] = true
	}

	lit := false
	if _, on := it.State.Define("OE_LIGHTING"); on && it.State.Enabled(state.ModeLighting) {
		lit = true
	}
	cullFace := it.State.Enabled(state.ModeCullFace)
	size := max(it.Drawable.Size(), 1)
	idx := it.Drawable.Indices()

	var out []fragmentCoverage
	switch it.Drawable.Primitive() {
	case scene.PrimitiveTriangles:
		for i := 0; i+2 < len(idx); i += 3 {
			a, b2, c := int(idx[i]), int(idx[i+1]), int(idx[i+2])
			if a >= n || b2 >= n || c >= n || !ok[a] || !ok[b2] || !ok[c] {
				continue
			}
			// window y grows downward, so counter-clockwise in NDC is negative here
			area := (wx[b2]-wx[a])*(wy[c]-wy[a]) - (wx[c]-wx[a])*(wy[b2]-wy[a])
			if area == 0 || (cullFace && area > 0) {
				continue
			}
			fc := fragmentCoverage{
				x:     [3]float32{wx[a], wx[b2], wx[c]},
				y:     [3]float32{wy[a], wy[b2], wy[c]},
				z:     [3]float32{wz[a], wz[b2], wz[c]},
				shade: 1,
			}
			if lit {
				fc.shade = faceShade(world[a], world[b2], world[c])
			}
			if fill(&fc, vp, fc.x[:], fc.y[:]) {
				out = append(out, fc)
			}
		}
	case scene.PrimitiveLines:
		hw := size / 2
		for i := 0; i+1 < len(idx); i += 2 {
			a, c := int(idx[i]), int(idx[i+1])
			if a >= n || c >= n || !ok[a] || !ok[c] {
				continue
			}
			dx, dy := wx[c]-wx[a], wy[c]-wy[a]
			l := math32.Sqrt(dx*dx + dy*dy)
			if l == 0 {
				continue
			}
			px, py := -dy/l*hw, dx/l*hw
			fc := fragmentCoverage{flat: true, shade: 1, z: [3]float32{(wz[a] + wz[c]) / 2}}
			xs := []float32{wx[a] + px, wx[c] + px, wx[c] - px, wx[a] - px}
			ys := []float32{wy[a] + py, wy[c] + py, wy[c] - py, wy[a] - py}
			if fill(&fc, vp, xs, ys) {
				out = append(out, fc)
			}
		}
	case scene.PrimitivePoints:
		hs := size / 2
		for _, v := range idx {
			a := int(v)
			if a >= n || !ok[a] {
				continue
			}
			fc := fragmentCoverage{flat: true, shade: 1, z: [3]float32{wz[a]}}
			xs := []float32{wx[a] - hs, wx[a] + hs, wx[a] + hs, wx[a] - hs}
			ys := []float32{wy[a] - hs, wy[a] - hs, wy[a] + hs, wy[a] + hs}
			if fill(&fc, vp, xs, ys) {
				out = append(out, fc)
			}
		}
	}
	return out
}

// fill rasterizes a closed polygon clipped to the viewport into fc.mask.
func fill(fc *fragmentCoverage, vp image.Rectangle, xs, ys []float32) bool {
	minX, minY := xs[0], ys[0]
	maxX, maxY := xs[0], ys[0]
	for i := 1; i < len(xs); i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}
	rect := image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	).Intersect(vp)
	if rect.Empty() {
		return false
	}

	ox, oy := float32(rect.Min.X), float32(rect.Min.Y)
	r := vector.NewRasterizer(rect.Dx(), rect.Dy())
	r.DrawOp = draw.Src
	r.MoveTo(xs[0]-ox, ys[0]-oy)
	for i := 1; i < len(xs); i++ {
		r.LineTo(xs[i]-ox, ys[i]-oy)
	}
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	fc.rect = rect
	fc.mask = mask
	return true
}

func faceShade(a, b, c [3]float32) float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{u[1]*v[2] - u[2]*v[1], u[2]*v[0] - u[0]*v[2], u[0]*v[1] - u[1]*v[0]}
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return 1
	}
	d := (n[0]*lightDir[0] + n[1]*lightDir[1] + n[2]*lightDir[2]) / l
	return 0.35 + 0.65*math32.Abs(d)
}

// composite depth-tests, shades and blends one item's fragments into the target.
func (b *softwareRendererBackend) composite(s *RenderStage, it DrawItem, frags []fragmentCoverage, target *image.RGBA, depth []float32) {
	st := it.State
	depthTest := st.Enabled(state.ModeDepthTest)
	blend := st.Enabled(state.ModeBlend)
	antialias := blend && !s.Pick

	pick := st.Program != nil && st.Program.Has(shader.RTTPickerFragmentKey)
	var base [4]float32
	if pick {
		c := objectid.Encode(objectid.ObjectID(st.UniformUint(b.index.ObjectIDUniformName(), 0)))
		base = [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
	} else {
		base = it.Drawable.Color()
	}

	bounds := target.Bounds()
	stride := bounds.Dx()
	for _, fc := range frags {
		src := base
		if !pick {
			src[0], src[1], src[2] = src[0]*fc.shade, src[1]*fc.shade, src[2]*fc.shade
		}
		area := (fc.x[1]-fc.x[0])*(fc.y[2]-fc.y[0]) - (fc.x[2]-fc.x[0])*(fc.y[1]-fc.y[0])

		for my := range fc.rect.Dy() {
			for mx := range fc.rect.Dx() {
				a := fc.mask.AlphaAt(mx, my).A
				if a == 0 || (!antialias && a < 128) {
					continue
				}
				px, py := fc.rect.Min.X+mx, fc.rect.Min.Y+my

				z := fc.z[0]
				if !fc.flat {
					cx, cy := float32(px)+0.5, float32(py)+0.5
					w0 := ((fc.x[1]-cx)*(fc.y[2]-cy) - (fc.x[2]-cx)*(fc.y[1]-cy)) / area
					w1 := ((fc.x[2]-cx)*(fc.y[0]-cy) - (fc.x[0]-cx)*(fc.y[2]-cy)) / area
					z = w0*fc.z[0] + w1*fc.z[1] + (1-w0-w1)*fc.z[2]
				}
				if z < 0 || z > 1 {
					continue
				}
				di := (py-bounds.Min.Y)*stride + (px - bounds.Min.X)
				if depthTest {
					if z >= depth[di] {
						continue
					}
					depth[di] = z
				}

				out := src
				if blend {
					if antialias {
						out[3] *= float32(a) / 255
					}
					dst := target.RGBAAt(px, py)
					out = blendColor(st.BlendFunc, out, [4]float32{
						float32(dst.R) / 255, float32(dst.G) / 255, float32(dst.B) / 255, float32(dst.A) / 255,
					})
				}
				target.SetRGBA(px, py, toRGBA(out))
			}
		}
	}
}

func blendColor(bf state.BlendFunc, src, dst [4]float32) [4]float32 {
	var out [4]float32
	for i := range 3 {
		out[i] = src[i]*factor(bf.SrcRGB, i, src, dst) + dst[i]*factor(bf.DstRGB, i, src, dst)
	}
	out[3] = src[3]*factor(bf.SrcAlpha, 3, src, dst) + dst[3]*factor(bf.DstAlpha, 3, src, dst)
	return out
}

func factor(f state.BlendFactor, ch int, src, dst [4]float32) float32 {
	switch f {
	case state.BlendOne:
		return 1
	case state.BlendSrcAlpha:
		return src[3]
	case state.BlendOneMinusSrcAlpha:
		return 1 - src[3]
	case state.BlendDstAlpha:
		return dst[3]
	case state.BlendOneMinusDstAlpha:
		return 1 - dst[3]
	case state.BlendSrcColor:
		return src[ch]
	case state.BlendOneMinusSrcColor:
		return 1 - src[ch]
	}
	return 0
}

func toRGBA(c [4]float32) color.RGBA {
	conv := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return color.RGBA{R: conv(c[0]), G: conv(c[1]), B: conv(c[2]), A: conv(c[3])}
}
