package engine

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/view"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	views []*view.View

	// pointer events posted by the window thread, drained by the render loop
	eventMu *sync.Mutex
	events  []view.Event

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, or nil for a headless engine
	Window() window.Window

	// Renderer returns the renderer that draws the views.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for application logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddView appends a view. Views are rendered in the order they were added, and pointer
	// events go to the last added view whose viewport contains the pointer.
	//
	// Parameters:
	//   - v: the view to add
	AddView(v *view.View)

	// RemoveView removes a view. Removing a view that was never added does nothing.
	//
	// Parameters:
	//   - v: the view to remove
	RemoveView(v *view.View)

	// Views returns the views in render order.
	//
	// Returns:
	//   - []*view.View: a copy of the view list
	Views() []*view.View

	// PostEvent queues a pointer event. Events are delivered to view event routers on the
	// render goroutine at the start of the next frame, before any view is culled.
	// Safe to call from any goroutine.
	//
	// Parameters:
	//   - ev: the event in window pixels
	PostEvent(ev view.Event)

	// Frame runs one render loop iteration: delivers queued events, renders every view
	// and presents the surface.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: the first render error, if any
	Frame(dt float32) error

	// Run starts the tick and render goroutines and runs the window message loop on the
	// calling goroutine, which must be the one that created the window. It blocks until the
	// window closes, then releases the renderer and destroys the window.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A window's input and resize callbacks are connected to the views and renderer.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, views, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if no renderer was provided and the default one could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		eventMu:         &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		backend := renderer.BackendTypeWGPU
		if e.window == nil {
			backend = renderer.BackendTypeSoftware
		}
		r, err := renderer.NewRenderer(backend, e.window)
		if err != nil {
			return nil, fmt.Errorf("failed to create renderer: %w", err)
		}
		e.renderer = r
	}

	if e.window != nil {
		e.connectWindow()
	}

	return e, nil
}

// connectWindow routes window callbacks into the engine. Callbacks run on the window thread,
// so pointer input is queued and resize only touches mutex-guarded state.
func (e *engine) connectWindow() {
	e.window.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		if err := e.renderer.Resize(width, height); err != nil {
			common.Logger().Warn("resize failed", "width", width, "height", height, "error", err)
		}
		for _, v := range e.Views() {
			v.Resize(width, height)
		}
	})
	e.window.SetMouseMoveCallback(func(x, y float32) {
		e.PostEvent(view.Event{Type: view.EventMove, X: x, Y: y})
	})
	e.window.SetMouseButtonCallback(func(button common.MouseButton, pressed bool, x, y float32) {
		t := view.EventRelease
		if pressed {
			t = view.EventPush
		}
		e.PostEvent(view.Event{Type: t, Button: button, X: x, Y: y})
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() {
	if e.window == nil {
		common.Logger().Warn("run called on a headless engine")
		return
	}
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	e.handle()
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	e.renderer.Release()
	if err := e.window.Close(); err != nil {
		common.Logger().Warn("window close failed", "error", err)
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.Frame(dt); err != nil {
				common.Logger().Warn("frame failed", "error", err)
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

func (e *engine) Frame(dt float32) error {
	views := e.Views()

	start := time.Now()
	e.deliverEvents(views)
	e.measure("events", start)

	var firstErr error
	start = time.Now()
	for _, v := range views {
		if err := e.renderer.Frame(v); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("view %q: %w", v.Name(), err)
		}
	}
	e.renderer.Present()
	e.measure("render", start)

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
	return firstErr
}

func (e *engine) measure(phase string, start time.Time) {
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Measure(phase, start)
	}
}

// deliverEvents drains the event queue into view routers. Move and push events go to the
// topmost view under the pointer; releases go to every view so a press that started in one
// view is always ended.
func (e *engine) deliverEvents(views []*view.View) {
	e.eventMu.Lock()
	events := e.events
	e.events = nil
	e.eventMu.Unlock()

	for _, ev := range events {
		if ev.Type == view.EventRelease {
			for _, v := range views {
				v.EventRouter().Handle(ev)
			}
			continue
		}
		for i := len(views) - 1; i >= 0; i-- {
			cam := views[i].Camera()
			if cam != nil && cam.Viewport().Contains(ev.X, ev.Y) {
				views[i].EventRouter().Handle(ev)
				break
			}
		}
	}
}

func (e *engine) PostEvent(ev view.Event) {
	e.eventMu.Lock()
	defer e.eventMu.Unlock()
	// consecutive moves collapse into the latest position
	if n := len(e.events); n > 0 && ev.Type == view.EventMove && e.events[n-1].Type == view.EventMove {
		e.events[n-1] = ev
		return
	}
	e.events = append(e.events, ev)
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		e.engineTickRate = newRate
		return
	}

	// replace any pending update so the latest rate wins
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddView(v *view.View) {
	if v == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !slices.Contains(e.views, v) {
		e.views = append(e.views, v)
	}
}

func (e *engine) RemoveView(v *view.View) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.views = slices.DeleteFunc(e.views, func(x *view.View) bool { return x == v })
}

func (e *engine) Views() []*view.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.views)
}
