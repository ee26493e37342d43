package state

import "testing"

func TestChildWins(t *testing.T) {
	tests := []struct {
		name   string
		parent Value
		child  Value
		want   bool
	}{
		{"unforced parent always yields", On | Protected, Off, true},
		{"forced parent beats plain child", Off | Override, On, false},
		{"forced parent beats protected child of lower precedence", Off | Override | Protected, On | Protected, false},
		{"equal precedence child wins", Off | Override, On | Override, true},
		{"protected child beats plain override", Off | Override, On | Protected, true},
		{"fully forced child beats fully forced parent", Off | Override | Protected, On | Override | Protected, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := childWins(tt.parent, tt.child); got != tt.want {
				t.Fatalf("childWins(%b, %b) = %v, want %v", tt.parent, tt.child, got, tt.want)
			}
		})
	}
}

func TestStackPickIsolation(t *testing.T) {
	pick := NewStateSet("pick")
	pick.SetMode(ModeLighting, Off|Override|Protected)
	pick.SetMode(ModeBlend, Off|Override|Protected)
	pick.SetBlendFunc(BlendFunc{BlendOne, BlendZero, BlendOne, BlendZero}, Override|Protected)
	pick.SetDefine("OE_LIGHTING", "", Off|Override)

	text := NewStateSet("text")
	text.SetMode(ModeBlend, On|Protected)
	text.SetMode(ModeLighting, Off)
	text.SetBlendFunc(DefaultBlendFunc, 0)
	text.SetDefine("OE_LIGHTING", "", Off|Protected)
	text.SetDefine("OE_DISABLE_DEFAULT_SHADER", "1", On)

	st := NewStack(nil)
	st.Push(pick)
	st.Push(text)

	top := st.Top()
	if top.Enabled(ModeBlend) {
		t.Fatal("blend re-enabled under the pick state")
	}
	if top.BlendFunc != (BlendFunc{BlendOne, BlendZero, BlendOne, BlendZero}) {
		t.Fatalf("blend func = %+v, want ONE/ZERO", top.BlendFunc)
	}
	if _, ok := top.Define("OE_DISABLE_DEFAULT_SHADER"); !ok {
		t.Fatal("unforced child define was dropped")
	}

	st.Pop()
	st.Pop()
	if st.Depth() != 0 {
		t.Fatalf("depth = %d after popping everything", st.Depth())
	}
	if !st.Top().Enabled(ModeLighting) {
		t.Fatal("base state was mutated by a push")
	}
}

func TestStackWithoutOverride(t *testing.T) {
	parent := NewStateSet("parent")
	parent.SetMode(ModeCullFace, On)
	child := NewStateSet("child")
	child.SetMode(ModeCullFace, Off)
	child.AddUniform("oe_index_objectid", uint32(7), 0)
	child.SetRenderingHint(HintTransparent)

	st := NewStack(nil)
	st.Push(parent)
	st.Push(nil)
	st.Push(child)

	top := st.Top()
	if top.Enabled(ModeCullFace) {
		t.Fatal("child without override should win over an unforced parent")
	}
	if got := top.UniformUint("oe_index_objectid", 0); got != 7 {
		t.Fatalf("uniform = %d, want 7", got)
	}
	if top.Hint != HintTransparent {
		t.Fatalf("hint = %v, want transparent", top.Hint)
	}
}
