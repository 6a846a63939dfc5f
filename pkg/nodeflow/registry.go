package nodeflow

import (
	"sort"
	"sync"
)

// HandlerRegistry maps node types to handlers. It is safe for concurrent use.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[NodeType]Handler
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[NodeType]Handler)}
}

// Register adds or replaces the handler for t.
func (r *HandlerRegistry) Register(t NodeType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// Get returns the handler for t.
func (r *HandlerRegistry) Get(t NodeType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// Has reports whether t has a handler.
func (r *HandlerRegistry) Has(t NodeType) bool {
	_, ok := r.Get(t)
	return ok
}

// Types returns the registered node types, sorted.
func (r *HandlerRegistry) Types() []NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]NodeType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
