package hooks

import (
	"sort"
	"sync"
)

// Handler receives the name of an object the host reports as entered.
type Handler func(object string)

// Bus is the registration point for host "object entered" signals.
// Handlers run synchronously in Emit, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// OnObjectCreated registers h and returns a function that removes it.
func (b *Bus) OnObjectCreated(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Emit delivers object to every registered handler.
func (b *Bus) Emit(object string) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hs := make([]Handler, len(ids))
	for i, id := range ids {
		hs[i] = b.handlers[id]
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(object)
	}
}
