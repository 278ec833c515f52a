package bus

import "sync"

// Signal names the process-wide change notifications. Signals carry no
// payload: subscribers re-read current state from the unit store or the auth
// cache when notified.
type Signal string

const (
	SignalUnitChanged Signal = "unit_changed"
	SignalDataChanged Signal = "data_changed"
	SignalAuthChanged Signal = "auth_changed"
)

// Signals lists every signal the bus carries, in no particular order.
var Signals = []Signal{SignalUnitChanged, SignalDataChanged, SignalAuthChanged}

// Bus is a small in-process publish/subscribe hub. Multiple independent
// observers may subscribe to the same signal; delivery order across
// observers is unspecified.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Signal]map[int]func()
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: map[Signal]map[int]func(){}}
}

// Subscribe registers a handler for a signal and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(sig Signal, handler func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[sig] == nil {
		b.subs[sig] = map[int]func(){}
	}
	b.subs[sig][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[sig], id)
	}
}

// Publish invokes every handler subscribed to the signal. Handlers run on
// the caller's goroutine, outside the bus lock, so they may publish or
// subscribe themselves.
func (b *Bus) Publish(sig Signal) {
	b.mu.Lock()
	handlers := make([]func(), 0, len(b.subs[sig]))
	for _, h := range b.subs[sig] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}
