package common

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestViewportContains(t *testing.T) {
	vp := Viewport{X: 10, Y: 20, Width: 100, Height: 50}
	tests := []struct {
		name string
		x, y float32
		want bool
	}{
		{"origin corner", 10, 20, true},
		{"inside", 60, 40, true},
		{"right edge is exclusive", 110, 40, false},
		{"bottom edge is exclusive", 60, 70, false},
		{"left of viewport", 9.5, 40, false},
		{"pointer left the window", -1, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vp.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestViewportNormalize(t *testing.T) {
	vp := Viewport{X: 100, Y: 0, Width: 200, Height: 100}
	if u, v := vp.Normalize(200, 50); u != 0.5 || v != 0.5 {
		t.Errorf("center -> (%v, %v)", u, v)
	}
	if u, _ := vp.Normalize(50, 0); u >= 0 {
		t.Errorf("point left of the viewport normalized to %v", u)
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 3, 4); got != 3 {
		t.Errorf("Coalesce = %d, want 3", got)
	}
	if got := Coalesce[string](); got != "" {
		t.Errorf("Coalesce() = %q", got)
	}
}

func TestSoftAssertLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	if !SoftAssert(true, "never logged") {
		t.Error("true condition reported false")
	}
	if SoftAssert(false, "size must be positive", "size", 0) {
		t.Error("false condition reported true")
	}
	out := buf.String()
	if strings.Contains(out, "never logged") || !strings.Contains(out, "size must be positive") || !strings.Contains(out, "size=0") {
		t.Errorf("log output = %q", out)
	}

	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger is not silent")
	}
}

func TestFrustumFromPerspective(t *testing.T) {
	var proj, view, vp [16]float32
	Perspective(proj[:], 0.8, 1, 0.1, 100)
	LookAt(view[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)
	Mul4(vp[:], proj[:], view[:])
	f := ExtractFrustumFromMatrix(vp[:])

	tests := []struct {
		name   string
		center [3]float32
		radius float32
		want   bool
	}{
		{"at target", [3]float32{0, 0, 0}, 0.5, true},
		{"behind the eye", [3]float32{0, 0, 10}, 0.5, false},
		{"beyond far plane", [3]float32{0, 0, -200}, 1, false},
		{"far to the side", [3]float32{50, 0, 0}, 1, false},
		{"straddling the side plane", [3]float32{2.2, 0, 0}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IntersectsSphere(tt.center, tt.radius); got != tt.want {
				t.Errorf("IntersectsSphere(%v, %v) = %v, want %v", tt.center, tt.radius, got, tt.want)
			}
		})
	}
}

func TestInvert4(t *testing.T) {
	var m, inv, id [16]float32
	BuildModelMatrix(m[:], 1, 2, 3, 0.3, 0.2, 0.1, 2, 2, 2)
	if !Invert4(inv[:], m[:]) {
		t.Fatal("model matrix reported singular")
	}
	Mul4(id[:], m[:], inv[:])
	for i := range 16 {
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		if d := id[i] - want; d > 1e-4 || d < -1e-4 {
			t.Fatalf("m * inverse [%d] = %v, want %v", i, id[i], want)
		}
	}

	var zero [16]float32
	if Invert4(inv[:], zero[:]) {
		t.Error("zero matrix inverted")
	}
}
