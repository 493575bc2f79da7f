package model

import (
	"context"
	"fmt"
	"sync"
)

// MemoryObjects is an in-memory ObjectLookup and TypeRegistry, used by
// tests and by hosts that keep geometry outside any database.
type MemoryObjects struct {
	mu      sync.RWMutex
	objects map[string]*SurfaceObject
	types   map[string]StructureType
}

// NewMemoryObjects creates an empty store.
func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{
		objects: make(map[string]*SurfaceObject),
		types:   make(map[string]StructureType),
	}
}

// Put registers or replaces an object.
func (m *MemoryObjects) Put(o SurfaceObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[o.Name] = &o
}

// SurfaceObject implements ObjectLookup. The returned value is a copy.
func (m *MemoryObjects) SurfaceObject(_ context.Context, name string) (*SurfaceObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	cp := *o
	return &cp, nil
}

// StructureType implements TypeRegistry.
func (m *MemoryObjects) StructureType(_ context.Context, name string) (StructureType, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[name]
	return t, ok, nil
}

// SetStructureType implements TypeRegistry.
func (m *MemoryObjects) SetStructureType(_ context.Context, name string, t StructureType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[name] = t
	return nil
}
