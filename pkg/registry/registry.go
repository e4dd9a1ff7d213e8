// Package registry implements the Tool Registry (C6): a namespaced,
// write-once-then-read-only map from fully-qualified tool name to its
// descriptor and handler.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
)

// Descriptor is the wire-visible tool metadata (§3's Tool Descriptor).
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Handler performs a tool invocation given the call arguments. It returns
// either a decoded JSON value or a raw string, or a typed error from
// pkg/bridgeerr.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool bundles the two halves of one registry entry.
type Tool struct {
	Descriptor Descriptor
	Handler    Handler
}

type entry struct {
	descriptor Descriptor
	handler    Handler
}

// Registry is constructed once per process by the host orchestrator; after
// wiring completes it is read-only (§4.6).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

func New() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register installs every tool under the "service." namespace. It rejects
// the whole batch if any name collides with an already-registered tool.
func (r *Registry) Register(service string, tools []Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tools {
		if _, exists := r.entries[t.Descriptor.Name]; exists {
			return fmt.Errorf("service %q: tool %q already registered", service, t.Descriptor.Name)
		}
	}

	for _, t := range tools {
		r.entries[t.Descriptor.Name] = entry{descriptor: t.Descriptor, handler: t.Handler}
		r.order = append(r.order, t.Descriptor.Name)
	}

	return nil
}

// List returns descriptors in insertion order (§4.6, deterministic).
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].descriptor)
	}
	return out
}

// Lookup returns the handler for a fully-qualified tool name.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, &bridgeerr.UnknownToolError{Name: name}
	}
	return e.handler, nil
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
