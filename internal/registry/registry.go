// Package registry holds the bridge method registry: a two-level mapping
// from namespace ("className" on the wire) to method name to handler.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mattjoyce/minibridge/internal/log"
)

// DuplicateError is returned by Register when override is disabled and the
// (namespace, method) key already holds a handler.
type DuplicateError struct {
	Namespace string
	Method    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("method %s.%s is already registered", e.Namespace, e.Method)
}

// Registry maps (namespace, method) to handlers. Keys are case-sensitive
// exact-match strings. A namespace entry never exists with an empty inner
// map: removing the last method removes the namespace.
//
// Mutations replace a namespace's inner map wholesale rather than writing
// into it, so a concurrent Lookup never observes a half-updated namespace.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Handler
	logger     *slog.Logger
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		namespaces: make(map[string]map[string]Handler),
		logger:     log.WithComponent("registry"),
	}
}

// Register inserts a handler at (namespace, method). When override is true
// an existing handler is replaced; when false, a conflicting key returns a
// DuplicateError and the registry is left untouched.
func (r *Registry) Register(namespace, method string, h Handler, override bool) error {
	if namespace == "" {
		return fmt.Errorf("namespace is empty")
	}
	if method == "" {
		return fmt.Errorf("method is empty")
	}
	if h == nil {
		return fmt.Errorf("handler for %s.%s is nil", namespace, method)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.namespaces[namespace]
	if _, exists := old[method]; exists && !override {
		return &DuplicateError{Namespace: namespace, Method: method}
	}

	inner := make(map[string]Handler, len(old)+1)
	for k, v := range old {
		inner[k] = v
	}
	inner[method] = h
	r.namespaces[namespace] = inner

	r.logger.Info("method registered", "namespace", namespace, "method", method)
	return nil
}

// Unregister removes the handler at (namespace, method) and reports whether
// a removal occurred. Removing the last method of a namespace removes the
// namespace entry as well.
func (r *Registry) Unregister(namespace, method string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.namespaces[namespace]
	if !ok {
		return false
	}
	if _, ok := old[method]; !ok {
		return false
	}

	if len(old) == 1 {
		delete(r.namespaces, namespace)
	} else {
		inner := make(map[string]Handler, len(old)-1)
		for k, v := range old {
			if k != method {
				inner[k] = v
			}
		}
		r.namespaces[namespace] = inner
	}

	r.logger.Info("method unregistered", "namespace", namespace, "method", method)
	return true
}

// UnregisterNamespace removes an entire namespace. No-op when absent.
func (r *Registry) UnregisterNamespace(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.namespaces[namespace]; !ok {
		return
	}
	delete(r.namespaces, namespace)
	r.logger.Info("namespace unregistered", "namespace", namespace)
}

// UnregisterAll clears the registry. This is the registry's teardown.
func (r *Registry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.namespaces = make(map[string]map[string]Handler)
	r.logger.Info("registry cleared")
}

// Lookup returns the handler at (namespace, method), if any.
func (r *Registry) Lookup(namespace, method string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.namespaces[namespace][method]
	return h, ok
}

// IsRegistered reports whether (namespace, method) holds a handler.
func (r *Registry) IsRegistered(namespace, method string) bool {
	_, ok := r.Lookup(namespace, method)
	return ok
}

// Methods returns the sorted method names of a namespace. Unknown namespaces
// yield an empty slice, not an error.
func (r *Registry) Methods(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inner := r.namespaces[namespace]
	methods := make([]string, 0, len(inner))
	for name := range inner {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Namespaces returns the sorted namespace names.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
