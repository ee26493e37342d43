package camera

import (
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/chewxy/math32"
)

func approx(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func TestCameraIsSceneNode(t *testing.T) {
	cam := NewCamera(WithName("main"))
	cam.AddChild(scene.NewQuad("q"))

	var visited []string
	cam.Accept(scene.NewNodeVisitor(scene.VisitorNone, func(n scene.Node) bool {
		if _, ok := n.(Camera); ok {
			visited = append(visited, "camera:"+n.Name())
		} else {
			visited = append(visited, n.Name())
		}
		return true
	}))
	if len(visited) != 2 || visited[0] != "camera:main" || visited[1] != "q" {
		t.Errorf("visited = %v", visited)
	}
}

func TestCameraEyePoint(t *testing.T) {
	cam := NewCamera(WithLookAt([3]float32{1, 2, 3}, [3]float32{0, 0, 0}))
	eye := cam.EyePoint()
	for i, want := range []float32{1, 2, 3} {
		if !approx(eye[i], want) {
			t.Fatalf("EyePoint() = %v, want [1 2 3]", eye)
		}
	}
	u := cam.Uniform()
	if u.Size() != 80 || len(u.Marshal()) != 80 {
		t.Errorf("uniform size = %d", u.Size())
	}
}

func TestCameraResizePolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  ProjectionResizePolicy
		want0   float32
		want5   float32
		changed bool
	}{
		{"horizontal keeps vertical fov", ResizeHorizontal, 0.5, 1, true},
		{"vertical keeps horizontal fov", ResizeVertical, 1, 2, true},
		{"fixed", ResizeFixed, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(
				WithViewport(common.Viewport{Width: 100, Height: 100}),
				WithResizePolicy(tt.policy),
			)
			cam.SetProjectionMatrix(common.Mat4Identity)
			cam.Resize(200, 100)
			p := cam.ProjectionMatrix()
			if !approx(p[0], tt.want0) || !approx(p[5], tt.want5) {
				t.Errorf("projection scale = (%v, %v), want (%v, %v)", p[0], p[5], tt.want0, tt.want5)
			}
			if vp := cam.Viewport(); vp.Width != 200 || vp.Height != 100 {
				t.Errorf("viewport = %+v", vp)
			}
		})
	}
}

func TestCullSettingsInherit(t *testing.T) {
	own := CullSettings{CullMask: 1, Mode: 0, SmallFeatureCullingPixelSize: -1}
	other := CullSettings{CullMask: 2, Mode: CullDefault, SmallFeatureCullingPixelSize: 4}

	got := own.Inherit(other, InheritCullMask)
	if got.CullMask != 2 || got.Mode != 0 || got.SmallFeatureCullingPixelSize != -1 {
		t.Errorf("Inherit(mask only) = %+v", got)
	}
	if got := own.Inherit(other, InheritAll); got != other {
		t.Errorf("Inherit(all) = %+v, want %+v", got, other)
	}
}

func TestCameraAttachments(t *testing.T) {
	cam := NewCamera()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	cam.Attach(ColorBuffer0, img)
	if cam.Attachment(ColorBuffer0) != img {
		t.Fatal("attachment not stored")
	}
	cam.Attach(ColorBuffer0, nil)
	if cam.Attachment(ColorBuffer0) != nil {
		t.Error("attachment not removed")
	}
}

func TestControllerDrivesView(t *testing.T) {
	ctrl := NewCameraController(WithRadius(5), WithElevation(0), WithAzimuth(0))
	cam := NewCamera(WithController(ctrl))
	eye := cam.EyePoint()
	if !approx(eye[2], 5) || !approx(eye[0], 0) {
		t.Fatalf("eye = %v, want [0 0 5]", eye)
	}
	ctrl.Zoom(2)
	cam.Update()
	if eye := cam.EyePoint(); !approx(eye[2], 3) {
		t.Errorf("eye after zoom = %v, want z=3", eye)
	}
}
