package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// newPlatformWindow creates the GLFW window, applies the size settings and connects the
// input callbacks.
//
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// the surface comes from WebGPU, not an OpenGL context
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	resizable := glfw.False
	if w.resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	w.internalWindow = win

	if w.minWidth > 0 || w.minHeight > 0 || w.maxWidth > 0 || w.maxHeight > 0 {
		win.SetSizeLimits(sizeLimit(w.minWidth), sizeLimit(w.minHeight), sizeLimit(w.maxWidth), sizeLimit(w.maxHeight))
	}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.RequestClose()
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.onMouseButton == nil || action == glfw.Repeat {
			return
		}
		x, y := cursorPixels(win)
		w.onMouseButton(common.MouseButton(button), action == glfw.Press, x, y)
	})

	win.SetCursorPosCallback(func(*glfw.Window, float64, float64) {
		if w.onMouseMove != nil {
			w.onMouseMove(cursorPixels(win))
		}
	})

	win.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if !entered && w.onMouseMove != nil {
			w.onMouseMove(-1, -1)
		}
	})

	// framebuffer size rather than window size: the two differ on high-DPI displays and
	// the surface and viewports are in framebuffer pixels
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	w.width, w.height = win.GetFramebufferSize()

	return nil
}

func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

// cursorPixels returns the cursor position in framebuffer pixels.
func cursorPixels(win *glfw.Window) (float32, float32) {
	xpos, ypos := win.GetCursorPos()
	ww, wh := win.GetSize()
	fw, fh := win.GetFramebufferSize()
	sx, sy := 1.0, 1.0
	if ww > 0 && wh > 0 {
		sx, sy = float64(fw)/float64(ww), float64(fh)/float64(wh)
	}
	return float32(xpos * sx), float32(ypos * sy)
}

func glfwHandle(w *engineWindow) *glfw.Window {
	win, _ := w.internalWindow.(*glfw.Window)
	return win
}

// platformSurfaceDescriptor uses the wgpuglfw bridge, which covers Windows, X11, Wayland and macOS.
func platformSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	win := glfwHandle(w)
	if win == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(win)
}

func platformIsOpen(w *engineWindow) bool {
	win := glfwHandle(w)
	return win != nil && !win.ShouldClose()
}

func platformDestroy(w *engineWindow) error {
	win := glfwHandle(w)
	if win == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.internalWindow = nil
	win.Destroy()
	glfw.Terminate()
	return nil
}

func platformPollEvents() {
	glfw.PollEvents()
}
