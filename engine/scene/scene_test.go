package scene

import (
	"testing"
)

func TestGroupChildren(t *testing.T) {
	a := NewQuad("a")
	b := NewBox("b")
	g := NewGroup("root", a)
	g.AddChild(b)
	g.AddChild(nil)

	if got := g.NumChildren(); got != 2 {
		t.Fatalf("NumChildren() = %d, want 2", got)
	}
	if !g.RemoveChild(a) {
		t.Fatal("RemoveChild(a) = false, want true")
	}
	if g.RemoveChild(a) {
		t.Error("second RemoveChild(a) = true, want false")
	}
	if c := g.Children(); len(c) != 1 || c[0] != Node(b) {
		t.Errorf("Children() = %v, want [b]", c)
	}
	g.RemoveChildren()
	if g.NumChildren() != 0 {
		t.Error("RemoveChildren left children behind")
	}
}

func TestVisitorDispatchesConcreteTypes(t *testing.T) {
	quad := NewQuad("quad")
	xf := NewTransform("xf", quad)
	root := NewGroup("root", xf)

	var names []string
	var sawTransform, sawGeometry bool
	root.Accept(NewNodeVisitor(VisitorNone, func(n Node) bool {
		names = append(names, n.Name())
		switch n.(type) {
		case *Transform:
			sawTransform = true
		case *Geometry:
			sawGeometry = true
		}
		return true
	}))

	want := []string{"root", "xf", "quad"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("visit %d = %q, want %q", i, names[i], want[i])
		}
	}
	if !sawTransform || !sawGeometry {
		t.Errorf("concrete dispatch failed: transform=%v geometry=%v", sawTransform, sawGeometry)
	}
}

func TestNodeMaskSkipsSubtree(t *testing.T) {
	hidden := NewGroup("hidden", NewQuad("inner"))
	hidden.SetNodeMask(0)
	root := NewGroup("root", hidden, NewQuad("visible"))

	if FindByName(root, "inner") != nil {
		t.Error("FindByName reached a node below a zero mask")
	}
	if FindByName(root, "visible") == nil {
		t.Error("FindByName(visible) = nil")
	}
}

func TestStorage(t *testing.T) {
	s := NewStorage()
	key := NewGroup("k")
	if s.Has(key) {
		t.Fatal("empty storage reports key present")
	}
	s.Set(key, true)
	if v, ok := s.Get(key); !ok || v != true {
		t.Errorf("Get = (%v, %v), want (true, true)", v, ok)
	}
	if s.Has(NewGroup("k")) {
		t.Error("storage keyed by name instead of identity")
	}
	s.Remove(key)
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Remove, want 0", s.Len())
	}
}

func TestComputeBound(t *testing.T) {
	tests := []struct {
		name       string
		vertices   []float32
		wantCenter [3]float32
		wantRadius float32
	}{
		{"empty", nil, [3]float32{}, 0},
		{"single", []float32{1, 2, 3}, [3]float32{1, 2, 3}, 0},
		{"segment", []float32{-1, 0, 0, 1, 0, 0}, [3]float32{0, 0, 0}, 1},
		{"offset", []float32{2, 2, 0, 4, 2, 0}, [3]float32{3, 2, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, r := ComputeBound(tt.vertices)
			if c != tt.wantCenter || r != tt.wantRadius {
				t.Errorf("ComputeBound() = (%v, %v), want (%v, %v)", c, r, tt.wantCenter, tt.wantRadius)
			}
		})
	}
}

func TestStateSetLazyCreation(t *testing.T) {
	g := NewGroup("g")
	if g.StateSet() != nil {
		t.Fatal("new node has a state set")
	}
	ss := g.GetOrCreateStateSet()
	if ss == nil || g.GetOrCreateStateSet() != ss {
		t.Error("GetOrCreateStateSet did not return a stable state set")
	}
}
