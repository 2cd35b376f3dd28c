package roost

import "sync"

// EventKind says what about a feed changed.
type EventKind int

const (
	// DisplayNameDidChange fires when the name shown for a feed may have
	// changed, from either a feed-reported name or a user edit.
	DisplayNameDidChange EventKind = iota + 1

	// UnreadCountDidChange fires when a feed's unread count changed.
	UnreadCountDidChange
)

func (k EventKind) String() string {
	switch k {
	case DisplayNameDidChange:
		return "display-name-did-change"
	case UnreadCountDidChange:
		return "unread-count-did-change"
	default:
		return "unknown"
	}
}

// Event describes a change to one specific feed.
type Event struct {
	Kind EventKind
	Feed *Feed
}

// Notifier receives feed change events. Publish is synchronous: it returns
// after every subscriber has seen the event.
type Notifier interface {
	Publish(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (fn NotifierFunc) Publish(e Event) { fn(e) }

// Hub is a small in-process Notifier that fans events out to subscribers,
// synchronously and in subscription order.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func NewHub() *Hub {
	return &Hub{subs: map[int]func(Event){}}
}

// Subscribe registers fn for all future events and returns a function that
// removes the subscription.
func (h *Hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
