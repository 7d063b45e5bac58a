package timeline

import "sync"

// PointerListener receives pointer events while subscribed. Either callback
// may be nil.
type PointerListener struct {
	Move func(x int)
	Up   func(x int)
}

// PointerHub fans document-wide pointer move and release events out to the
// listeners currently subscribed. A drag session subscribes on entry and
// cancels on exit so nothing keeps listening between drags.
type PointerHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]PointerListener
	order  []int
}

// NewPointerHub returns an empty hub.
func NewPointerHub() *PointerHub {
	return &PointerHub{subs: make(map[int]PointerListener)}
}

// Subscribe registers l and returns a cancel func. Cancel is idempotent and
// safe to call from inside a listener.
func (h *PointerHub) Subscribe(l PointerListener) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = l
	h.order = append(h.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *PointerHub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
	for i, candidate := range h.order {
		if candidate == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of active listeners.
func (h *PointerHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Move dispatches a pointer move to every listener in subscription order.
func (h *PointerHub) Move(x int) {
	for _, l := range h.snapshot() {
		if l.Move != nil {
			l.Move(x)
		}
	}
}

// Up dispatches a pointer release to every listener in subscription order.
func (h *PointerHub) Up(x int) {
	for _, l := range h.snapshot() {
		if l.Up != nil {
			l.Up(x)
		}
	}
}

func (h *PointerHub) snapshot() []PointerListener {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]PointerListener, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.subs[id])
	}
	return out
}
