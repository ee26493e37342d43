package bind_group_provider

import "testing"

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("draw", WithGroup(1))
	if p.Label() != "draw" || p.Group() != 1 {
		t.Errorf("label=%q group=%d", p.Label(), p.Group())
	}
	if p.Buffer(0) != nil || p.TextureView(0) != nil || p.Sampler(0) != nil || p.BindGroup() != nil {
		t.Error("new provider holds resources")
	}
	// releasing an empty provider must not touch nil GPU objects
	p.Release()
}

func TestBufferWriteValid(t *testing.T) {
	p := NewBindGroupProvider("draw")
	tests := []struct {
		name string
		w    BufferWrite
		want bool
	}{
		{"no provider", BufferWrite{Data: []byte{1}}, false},
		{"missing buffer", BufferWrite{Provider: p, Binding: 3, Data: []byte{1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
