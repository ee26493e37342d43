package objectid

import (
	"image"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ids := []ObjectID{1, 42, 0xff, 0x100, 0x10000, 0x01020304, 0x7fffffff, 0x80000000, 0xfffffffe, 0xffffffff}
	for _, id := range ids {
		if got := DecodeColor(Encode(id)); got != id {
			t.Errorf("DecodeColor(Encode(%#x)) = %#x", uint32(id), uint32(got))
		}
	}
}

func TestEncodeByteOrder(t *testing.T) {
	c := Encode(0x11223344)
	if c.R != 0x11 || c.G != 0x22 || c.B != 0x33 || c.A != 0x44 {
		t.Errorf("Encode(0x11223344) = %v, want big-endian split", c)
	}
}

func TestDecodeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Store(img, 2, 1, 0xdeadbeef)

	tests := []struct {
		name string
		x, y int
		want ObjectID
	}{
		{"stored", 2, 1, 0xdeadbeef},
		{"cleared pixel is empty", 0, 0, Empty},
		{"neighbour untouched", 3, 1, Empty},
		{"out of bounds", 4, 0, Empty},
		{"negative", -1, 2, Empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(img, tt.x, tt.y); got != tt.want {
				t.Errorf("Decode(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
	if Decode(nil, 0, 0) != Empty {
		t.Error("Decode(nil) != Empty")
	}
}

func TestIndexInsertTagsNode(t *testing.T) {
	idx := NewIndex(WithFirstID(7))
	a := scene.NewQuad("a")
	b := scene.NewQuad("b")

	ida := idx.Insert(a)
	idb := idx.Insert(b)
	if ida != 7 || idb != 8 {
		t.Fatalf("ids = %d, %d, want 7, 8", ida, idb)
	}
	if idx.Lookup(ida) != scene.Node(a) {
		t.Error("Lookup(ida) did not return a")
	}

	st := state.NewStack(nil)
	st.Push(a.StateSet())
	if got := st.Top().UniformUint(idx.ObjectIDUniformName(), 0); got != uint32(ida) {
		t.Errorf("resolved uniform = %d, want %d", got, ida)
	}

	idx.Remove(ida)
	if idx.Lookup(ida) != nil || idx.Len() != 1 {
		t.Error("Remove did not unregister")
	}
}

func TestIndexWrapSkipsLiveIDs(t *testing.T) {
	idx := NewIndex()
	one := idx.Insert(scene.NewQuad("one"))
	two := idx.Insert(scene.NewQuad("two"))
	idx.(*index).next = math.MaxUint32

	last := idx.Insert(scene.NewQuad("last"))
	if last != math.MaxUint32 {
		t.Fatalf("id = %#x, want MaxUint32", uint32(last))
	}
	wrapped := scene.NewQuad("wrapped")
	if got := idx.Insert(wrapped); got != 3 {
		t.Errorf("id after wrap = %d, want 3 past the live 1 and 2", got)
	}
	if idx.Lookup(one).Name() != "one" || idx.Lookup(two).Name() != "two" {
		t.Error("wrap overwrote a live registration")
	}

	idx.Remove(one)
	idx.(*index).next = math.MaxUint32
	if got := idx.Insert(scene.NewQuad("reused")); got != one {
		t.Errorf("id = %d, want the released %d", got, one)
	}
}

func TestIndexLoadShaders(t *testing.T) {
	p := shader.NewProgram("pick")
	shader.Shaders.Load(p, shader.Shaders.RTTPicker)
	Get().LoadShaders(p)

	src, err := p.Compose(nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(src, "fn oxy_index_objectid()") {
		t.Error("object index library not composed into the program")
	}
	groups, names := shader.ParseBindGroupLayouts(src)
	if names[1][1] != uniformName {
		t.Errorf("group 1 binding 1 = %q, want %q", names[1][1], uniformName)
	}
	entries := groups[1].Entries
	if len(entries) != 2 || entries[1].Buffer.MinBindingSize != 16 {
		t.Errorf("object id binding layout = %+v", entries)
	}
}
