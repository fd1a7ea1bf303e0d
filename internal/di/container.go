// Package di provides a small lazily-resolving service container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container registers services and factories.
type Container interface {
	ServiceRegistry
	Register(name string, service any)
	RegisterFactory(name string, factory func(sr ServiceRegistry) any)
	Has(name string) bool
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(sr ServiceRegistry) any
	resolving map[string]bool
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(sr ServiceRegistry) any),
		resolving: make(map[string]bool),
	}
}

// Register stores a ready-made service, replacing any previous registration.
func (c *container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.factories, name)
	c.services[name] = service
}

// RegisterFactory stores a factory invoked once, on first Get.
func (c *container) RegisterFactory(name string, factory func(sr ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.services, name)
	c.factories[name] = factory
}

// Has reports whether a service or factory is registered under name.
func (c *container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.services[name]
	if !ok {
		_, ok = c.factories[name]
	}
	return ok
}

// Get resolves a service, building it from its factory if needed.
// Unknown names and dependency cycles panic: both are wiring bugs.
func (c *container) Get(name string) any {
	c.mu.Lock()
	if s, ok := c.services[name]; ok {
		c.mu.Unlock()
		return s
	}
	factory, ok := c.factories[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q not registered", name))
	}
	if c.resolving[name] {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: dependency cycle while resolving %q", name))
	}
	c.resolving[name] = true
	c.mu.Unlock()

	// factories may call Get, so the lock is not held here
	s := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolving, name)
	if existing, ok := c.services[name]; ok {
		return existing
	}
	c.services[name] = s
	delete(c.factories, name)
	return s
}
