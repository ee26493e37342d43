package shader

import (
	"strings"
	"testing"
)

func TestProgramComposePicker(t *testing.T) {
	p := NewProgram("oxy.ObjectIDPicker")
	Shaders.Load(p, Shaders.RTTPicker)
	p.SetFunction(NewShader("oxy.test.objectid", ShaderTypeLibrary, "fn oxy_index_objectid() -> u32 { return 42u; }"))

	src, err := p.Compose(nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(src, annotationPrefix) {
		t.Fatal("composed source still contains directives")
	}
	if n := strings.Count(src, "struct DrawUniform"); n != 1 {
		t.Fatalf("DrawUniform emitted %d times, want 1", n)
	}
	if got := p.EntryPoint(ShaderTypeVertex); got != "oxy_pick_vs" {
		t.Fatalf("vertex entry point = %q", got)
	}
	if got := p.EntryPoint(ShaderTypeFragment); got != "oxy_pick_fs" {
		t.Fatalf("fragment entry point = %q", got)
	}
	if !p.Has(RTTPickerFragmentKey) {
		t.Fatal("Has(RTTPickerFragmentKey) = false")
	}
}

func TestProgramSetFunctionReplaces(t *testing.T) {
	p := NewProgram("p")
	p.SetFunction(NewShader("lib", ShaderTypeLibrary, "fn a() {}"))
	p.SetFunction(NewShader("lib", ShaderTypeLibrary, "fn b() {}"))
	if n := len(p.Functions()); n != 1 {
		t.Fatalf("functions = %d, want 1", n)
	}
	src, err := p.Compose(nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if src != "fn b() {}" {
		t.Fatalf("got %q", src)
	}
	p.RemoveFunction("lib")
	if p.Has("lib") {
		t.Fatal("function not removed")
	}
}

func TestProgramTextDefines(t *testing.T) {
	p := NewProgram("oxy::Text")
	Shaders.Load(p, Shaders.Text)
	src, err := p.Compose(map[string]string{
		"BACKDROP_COLOR":    "vec4(0.000, 0.000, 0.000, 1.000)",
		"SHADOW":            "vec2(0.07, -0.07)",
		"GLYPH_DIMENSION":   "32.0",
		"TEXTURE_DIMENSION": "1024",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(src, "input.uv - vec2(0.07, -0.07) * texel_scale") {
		t.Fatal("shadow offset was not substituted")
	}
	if strings.Contains(src, "halo") {
		t.Fatal("outline block kept without OUTLINE define")
	}
}
