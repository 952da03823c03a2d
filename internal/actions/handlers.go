package actions

import (
	"context"
	"sync"
)

// Handler runs when a button on a pending action is clicked.
type Handler func(ctx context.Context, action PendingAction) error

type handlerEntry struct {
	id uint64
	fn Handler
}

// HandlerRegistry maps (action type, button id) to a handler. It is an
// explicit instance shared by reference; feature code registers on mount and
// calls the returned unregister func on teardown.
type HandlerRegistry struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[string]handlerEntry
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byKey: make(map[string]handlerEntry)}
}

func handlerKey(t ActionType, buttonID string) string {
	return string(t) + ":" + buttonID
}

// Register stores h for (t, buttonID), replacing any previous registration.
// The returned func removes this registration only; it is a no-op if a later
// Register has since replaced it.
func (r *HandlerRegistry) Register(t ActionType, buttonID string, h Handler) (unregister func()) {
	key := handlerKey(t, buttonID)

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.byKey[key] = handlerEntry{id: id, fn: h}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if e, ok := r.byKey[key]; ok && e.id == id {
				delete(r.byKey, key)
			}
		})
	}
}

// Unregister removes whatever handler is registered for (t, buttonID).
func (r *HandlerRegistry) Unregister(t ActionType, buttonID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, handlerKey(t, buttonID))
}

// Lookup returns the handler for (t, buttonID).
func (r *HandlerRegistry) Lookup(t ActionType, buttonID string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byKey[handlerKey(t, buttonID)]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// Len returns the number of registered handlers.
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
