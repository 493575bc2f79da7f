package arrangement

import (
	"context"
	"sort"
	"sync"
)

// Persistence is the external arrangement store. The tree store keeps an
// in-memory view over it and only ever adds nodes.
type Persistence interface {
	// EnsureRoot creates the root node if it does not exist.
	EnsureRoot(ctx context.Context, name string) error

	// Lookup returns the parent of the named node and whether it exists.
	Lookup(ctx context.Context, name string) (parent string, found bool, err error)

	// Children lists the names of the direct children of parent.
	Children(ctx context.Context, parent string) ([]string, error)

	// CreateChild adds a child node named name under parent.
	CreateChild(ctx context.Context, parent, name string) error

	// Members lists the objects attached directly to node.
	Members(ctx context.Context, node string) ([]string, error)

	// AttachMember attaches object to node, replacing any earlier attachment.
	AttachMember(ctx context.Context, node, object string) error

	// DetachMember removes object from its node and returns that node's
	// name, or "" when the object was not attached.
	DetachMember(ctx context.Context, object string) (string, error)

	// NodeOf returns the node holding object, or "".
	NodeOf(ctx context.Context, object string) (string, error)
}

// MemoryPersistence is an in-memory Persistence.
type MemoryPersistence struct {
	mu       sync.Mutex
	parents  map[string]string
	children map[string][]string
	memberOf map[string]string
}

// NewMemoryPersistence creates an empty store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		parents:  make(map[string]string),
		children: make(map[string][]string),
		memberOf: make(map[string]string),
	}
}

var _ Persistence = (*MemoryPersistence)(nil)

func (m *MemoryPersistence) EnsureRoot(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parents[name]; !ok {
		m.parents[name] = ""
	}
	return nil
}

func (m *MemoryPersistence) Lookup(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parents[name]
	return p, ok, nil
}

func (m *MemoryPersistence) Children(_ context.Context, parent string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.children[parent]...), nil
}

// CreateChild does not check for duplicates; the tree store does.
func (m *MemoryPersistence) CreateChild(_ context.Context, parent, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parents[name] = parent
	m.children[parent] = append(m.children[parent], name)
	return nil
}

func (m *MemoryPersistence) Members(_ context.Context, node string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for obj, n := range m.memberOf {
		if n == node {
			out = append(out, obj)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryPersistence) AttachMember(_ context.Context, node, object string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberOf[object] = node
	return nil
}

func (m *MemoryPersistence) DetachMember(_ context.Context, object string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.memberOf[object]
	delete(m.memberOf, object)
	return n, nil
}

func (m *MemoryPersistence) NodeOf(_ context.Context, object string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memberOf[object], nil
}

// ChildCount returns how many children parent has in storage, duplicates
// included.
func (m *MemoryPersistence) ChildCount(parent string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.children[parent])
}
