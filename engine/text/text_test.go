package text

import (
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestFont(t *testing.T) *Font {
	t.Helper()
	f, err := NewFont("test", goregular.TTF)
	if err != nil {
		t.Fatalf("NewFont: %v", err)
	}
	return f
}

func defineMap(ss *state.StateSet) map[string]state.Define {
	out := map[string]state.Define{}
	for _, d := range ss.Defines() {
		out[d.Name] = d
	}
	return out
}

func TestNewFontRejectsGarbage(t *testing.T) {
	if _, err := NewFont("junk", []byte("not a font")); err == nil {
		t.Error("NewFont accepted invalid data")
	}
}

func TestDefines(t *testing.T) {
	tests := []struct {
		name    string
		options []TextBuilderOption
		want    map[string]string
		absent  []string
	}{
		{
			name: "plain",
			want: map[string]string{
				"GLYPH_DIMENSION":           "32.0",
				"TEXTURE_DIMENSION":         "1024.0",
				"SIGNED_DISTANCE_FIELD":     "1",
				"OE_DISABLE_DEFAULT_SHADER": "1",
			},
			absent: []string{"BACKDROP_COLOR", "OUTLINE", "SHADOW"},
		},
		{
			name:    "outline",
			options: []TextBuilderOption{WithBackdrop(Outline, [4]float32{1, 0, 0, 1})},
			want: map[string]string{
				"BACKDROP_COLOR": "vec4<f32>(1.000, 0.000, 0.000, 1.000)",
				"OUTLINE":        "0.070",
			},
			absent: []string{"SHADOW"},
		},
		{
			name:    "drop shadow bottom left",
			options: []TextBuilderOption{WithBackdrop(DropShadowBottomLeft, [4]float32{0, 0, 0, 1})},
			want:    map[string]string{"SHADOW": "vec2<f32>(-0.070, -0.070)"},
			absent:  []string{"OUTLINE"},
		},
		{
			name:    "drop shadow center right",
			options: []TextBuilderOption{WithBackdrop(DropShadowCenterRight, [4]float32{0, 0, 0, 1})},
			want:    map[string]string{"SHADOW": "vec2<f32>(0.070, 0.000)"},
		},
		{
			name:    "greyscale",
			options: []TextBuilderOption{WithShaderTechnique(Greyscale), WithFontResolution(64)},
			want:    map[string]string{"GLYPH_DIMENSION": "64.0"},
			absent:  []string{"SIGNED_DISTANCE_FIELD"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFont(t)
			txt := NewText("label", append([]TextBuilderOption{WithFont(f)}, tt.options...)...)
			defines := defineMap(txt.StyleStateSet())
			for name, value := range tt.want {
				if d, ok := defines[name]; !ok || d.Value != value {
					t.Errorf("%s = %q (set %v), want %q", name, d.Value, ok, value)
				}
			}
			for _, name := range tt.absent {
				if _, ok := defines[name]; ok {
					t.Errorf("%s is defined", name)
				}
			}
			if d := defines["OE_LIGHTING"]; d.Flags != state.Off|state.Protected {
				t.Errorf("OE_LIGHTING flags = %v, want off and protected", d.Flags)
			}
		})
	}
}

func TestStateSetShape(t *testing.T) {
	ss := NewText("label", WithFont(newTestFont(t))).StyleStateSet()
	if ss.RenderingHint() != state.HintTransparent {
		t.Error("text is not in the transparent bin")
	}
	if v, ok := ss.Mode(state.ModeBlend); !ok || !v.Enabled() {
		t.Error("blending not enabled")
	}
	if v, ok := ss.Mode(state.ModeLighting); !ok || v.Enabled() {
		t.Error("lighting not disabled")
	}
	p := ss.Program()
	if p == nil || p.Name() != ProgramName || !p.Has(shader.TextFragmentKey) {
		t.Fatalf("program = %v", p)
	}
	if _, ok := ss.Uniform("glyphTexture"); !ok {
		t.Error("glyphTexture uniform missing")
	}
}

func TestNoTextShaderInstallsNoProgram(t *testing.T) {
	ss := NewText("label", WithFont(newTestFont(t)), WithShaderTechnique(NoTextShader)).StyleStateSet()
	if ss.Program() != nil {
		t.Error("program installed without a text shader technique")
	}
	if v, ok := ss.Mode(state.ModeTexture2D); !ok || !v.Enabled() {
		t.Error("texturing not enabled for the fixed path")
	}
}

func TestStateSetCache(t *testing.T) {
	f := newTestFont(t)
	a := NewText("a", WithFont(f))
	b := NewText("b", WithFont(f))
	c := NewText("c", WithFont(f), WithBackdrop(Outline, [4]float32{0, 0, 0, 1}))

	if a.StyleStateSet() != b.StyleStateSet() {
		t.Error("texts with equal styles do not share a state")
	}
	if a.StyleStateSet() == c.StyleStateSet() {
		t.Error("texts with different styles share a state")
	}
	if got := f.CachedStateSets(); got != 2 {
		t.Errorf("cached states = %d, want 2", got)
	}

	other := NewText("d", WithFont(newTestFont(t)))
	if other.StyleStateSet() == a.StyleStateSet() {
		t.Error("state shared across fonts")
	}
}

func TestStateSetCacheConcurrent(t *testing.T) {
	f := newTestFont(t)
	backdrops := []BackdropType{BackdropNone, Outline, DropShadowTopLeft, DropShadowBottomCenter}

	const n = 64
	got := make([]*state.StateSet, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txt := NewText("t", WithFont(f), WithBackdrop(backdrops[i%len(backdrops)], [4]float32{0, 0, 0, 1}))
			got[i] = txt.StyleStateSet()
		}()
	}
	wg.Wait()

	if c := f.CachedStateSets(); c != len(backdrops) {
		t.Fatalf("cached states = %d, want %d", c, len(backdrops))
	}
	for i := range n {
		if got[i] != got[i%len(backdrops)] {
			t.Fatalf("text %d did not reuse the cached state", i)
		}
	}
}

func TestSetFont(t *testing.T) {
	f := newTestFont(t)
	txt := NewText("label", WithFont(f))
	ss := txt.StyleStateSet()

	txt.SetFont(f)
	if txt.style != ss {
		t.Error("setting the same font reset the style")
	}

	g := newTestFont(t)
	txt.SetFont(g)
	if txt.Font() != g || txt.StyleStateSet() == ss {
		t.Error("changing the font kept the old style")
	}
	if g.CachedStateSets() != 1 {
		t.Errorf("new font cached %d states, want 1", g.CachedStateSets())
	}
}

func TestLayout(t *testing.T) {
	txt := NewText("ab c", WithFont(newTestFont(t)))
	verts, idx, uvs := txt.Vertices(), txt.Indices(), txt.TexCoords()
	if len(idx) != 3*6 {
		t.Fatalf("indices = %d, want three glyph quads", len(idx))
	}
	if len(uvs) != len(verts)/3*2 {
		t.Errorf("uvs = %d for %d vertices", len(uvs), len(verts)/3)
	}

	_, r1 := txt.Bound()
	txt.SetCharacterSize(4)
	_, r4 := txt.Bound()
	if r1 <= 0 || r4 <= 3*r1 {
		t.Errorf("bound radius %v at size 1, %v at size 4", r1, r4)
	}

	txt.SetText("")
	if len(txt.Indices()) != 0 {
		t.Error("empty text still has geometry")
	}
}

func TestConcurrentSetTextKeepsLatestLayout(t *testing.T) {
	txt := NewText("", WithFont(newTestFont(t)))

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txt.SetText(strings.Repeat("x", i%7+1))
		}()
	}
	wg.Wait()

	want := len(txt.Text())
	if got := len(txt.Indices()) / 6; got != want {
		t.Errorf("glyph quads = %d for %q", got, txt.Text())
	}
	if got := len(txt.TexCoords()) / 8; got != want {
		t.Errorf("uv quads = %d for %q", got, txt.Text())
	}
}
