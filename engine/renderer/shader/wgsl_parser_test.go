package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func composedPicker(t *testing.T) string {
	t.Helper()
	p := NewProgram("picker")
	Shaders.Load(p, Shaders.RTTPicker)
	src, err := p.Compose(nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return src
}

func TestParseVertexLayout(t *testing.T) {
	layout, ok := ParseVertexLayout(composedPicker(t))
	if !ok {
		t.Fatal("no vertex layout found")
	}
	if layout.ArrayStride != 12 {
		t.Fatalf("stride = %d, want 12", layout.ArrayStride)
	}
	if len(layout.Attributes) != 1 || layout.Attributes[0].Format != wgpu.VertexFormatFloat32x3 {
		t.Fatalf("attributes = %+v", layout.Attributes)
	}
}

func TestParseBindGroupLayouts(t *testing.T) {
	layouts, names := ParseBindGroupLayouts(composedPicker(t))
	if got := names[0][0]; got != "camera" {
		t.Fatalf("group 0 binding 0 = %q, want camera", got)
	}
	if got := names[1][0]; got != "draw" {
		t.Fatalf("group 1 binding 0 = %q, want draw", got)
	}
	cam := layouts[0].Entries[0]
	if cam.Buffer.Type != wgpu.BufferBindingTypeUniform || cam.Buffer.MinBindingSize != 80 {
		t.Fatalf("camera entry = %+v", cam.Buffer)
	}
	draw := layouts[1].Entries[0]
	if draw.Buffer.MinBindingSize != 80 {
		t.Fatalf("draw uniform size = %d, want 80", draw.Buffer.MinBindingSize)
	}
}

func TestParseEntryPoint(t *testing.T) {
	src := "// @vertex fn commented_out()\n@fragment\nfn frag_main() -> @location(0) vec4<f32> { return vec4<f32>(); }"
	if got := parseEntryPoint(src, ShaderTypeVertex); got != "" {
		t.Fatalf("vertex entry = %q, want none", got)
	}
	if got := parseEntryPoint(src, ShaderTypeFragment); got != "frag_main" {
		t.Fatalf("fragment entry = %q", got)
	}
}
