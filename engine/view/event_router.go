package view

import (
	"sync"
	"weak"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/chewxy/math32"
)

// EventType classifies a pointer event.
type EventType int

const (
	// EventMove is a pointer motion.
	EventMove EventType = iota
	// EventPush is a button press.
	EventPush
	// EventRelease is a button release.
	EventRelease
)

// Event is a pointer event in window coordinates (pixels, origin top-left).
type Event struct {
	Type   EventType
	Button common.MouseButton
	X, Y   float32
}

// Handler receives the view the event arrived on and the event position in window pixels.
type Handler func(v *View, x, y float32)

// clickTolerance is the largest push-to-release distance, in pixels, still reported as a click.
const clickTolerance = 3

type handlerKind int

const (
	kindMove handlerKind = iota
	kindClick
)

type handlerEntry struct {
	id   uint64
	kind handlerKind
	fn   Handler
	eat  bool
}

// EventRouter maps raw pointer events on a view to move and click callbacks.
// Handlers run in registration order; a handler registered with eat stops delivery to
// later handlers of the same event.
type EventRouter struct {
	mu *sync.Mutex

	view     *View
	nextID   uint64
	handlers []handlerEntry
	pushed   map[common.MouseButton][2]float32
}

// Registration identifies a registered handler. It does not keep the router or its view alive.
type Registration struct {
	router weak.Pointer[EventRouter]
	id     uint64
}

// Remove unregisters the handler. Removing twice, or removing the zero Registration, is a no-op.
func (r Registration) Remove() {
	if router := r.router.Value(); router != nil {
		router.remove(r.id)
	}
}

// Valid reports whether the registration refers to a handler.
func (r Registration) Valid() bool {
	return r.id != 0
}

func newEventRouter(v *View) *EventRouter {
	return &EventRouter{
		mu:     &sync.Mutex{},
		view:   v,
		nextID: 1,
		pushed: make(map[common.MouseButton][2]float32),
	}
}

// OnMove registers a pointer motion handler. Motion is never eaten.
//
// Parameters:
//   - fn: the handler
//
// Returns:
//   - Registration: the handle used to remove the handler
func (r *EventRouter) OnMove(fn Handler) Registration {
	return r.add(kindMove, fn, false)
}

// OnClick registers a left button click handler. A click is a push followed by a release
// within a few pixels of the push position.
//
// Parameters:
//   - fn: the handler
//   - eat: true to stop delivery to handlers registered after this one
//
// Returns:
//   - Registration: the handle used to remove the handler
func (r *EventRouter) OnClick(fn Handler, eat bool) Registration {
	return r.add(kindClick, fn, eat)
}

// Len returns the number of registered handlers.
func (r *EventRouter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// Handle delivers an event to the registered handlers. Handlers run on the calling goroutine
// without the router lock held, so they may register or remove handlers.
//
// Parameters:
//   - ev: the event
func (r *EventRouter) Handle(ev Event) {
	switch ev.Type {
	case EventMove:
		r.dispatch(kindMove, ev.X, ev.Y)
	case EventPush:
		r.mu.Lock()
		r.pushed[ev.Button] = [2]float32{ev.X, ev.Y}
		r.mu.Unlock()
	case EventRelease:
		r.mu.Lock()
		p, ok := r.pushed[ev.Button]
		delete(r.pushed, ev.Button)
		r.mu.Unlock()
		if !ok || ev.Button != common.MouseButtonLeft {
			return
		}
		if math32.Abs(ev.X-p[0]) > clickTolerance || math32.Abs(ev.Y-p[1]) > clickTolerance {
			return
		}
		r.dispatch(kindClick, ev.X, ev.Y)
	}
}

func (r *EventRouter) dispatch(kind handlerKind, x, y float32) {
	r.mu.Lock()
	handlers := make([]handlerEntry, 0, len(r.handlers))
	for _, h := range r.handlers {
		if h.kind == kind {
			handlers = append(handlers, h)
		}
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h.fn(r.view, x, y)
		if h.eat {
			return
		}
	}
}

func (r *EventRouter) add(kind handlerKind, fn Handler, eat bool) Registration {
	if fn == nil {
		return Registration{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.handlers = append(r.handlers, handlerEntry{id: id, kind: kind, fn: fn, eat: eat})
	return Registration{router: weak.Make(r), id: id}
}

func (r *EventRouter) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range r.handlers {
		if h.id == id {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			return
		}
	}
}
