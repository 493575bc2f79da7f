package zone

import (
	"context"
	"sync"
)

// MemoryTables is an in-memory TableSource.
type MemoryTables struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemoryTables creates an empty table set.
func NewMemoryTables() *MemoryTables {
	return &MemoryTables{tables: make(map[string]*Table)}
}

// Put registers or replaces a table.
func (m *MemoryTables) Put(name string, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &Table{Name: name, Rows: rows}
}

// Table implements TableSource.
func (m *MemoryTables) Table(_ context.Context, name string) (*Table, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, false, nil
	}
	cp := &Table{Name: t.Name, Rows: append([]Row(nil), t.Rows...)}
	return cp, true, nil
}
