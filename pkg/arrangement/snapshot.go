package arrangement

import "sort"

// SnapshotNode is a serializable copy of a subtree.
type SnapshotNode struct {
	Name     string          `json:"name" msgpack:"name"`
	Members  []string        `json:"members,omitempty" msgpack:"members,omitempty"`
	Children []*SnapshotNode `json:"children,omitempty" msgpack:"children,omitempty"`
}

// Count returns the number of nodes in the snapshot.
func (s *SnapshotNode) Count() int {
	if s == nil {
		return 0
	}
	n := 1
	for _, c := range s.Children {
		n += c.Count()
	}
	return n
}

// Snapshot copies the loaded tree. Call LoadAll first for a complete view.
func (s *TreeStore) Snapshot() *SnapshotNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotLocked(s.root)
}

func snapshotLocked(n *Node) *SnapshotNode {
	out := &SnapshotNode{Name: n.name, Members: sortedKeys(n.members)}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Children = append(out.Children, snapshotLocked(n.children[name]))
	}
	return out
}
