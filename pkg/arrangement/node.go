package arrangement

import "sort"

// Node is one arrangement in the tree. Its name is globally unique. The
// parent link is a back reference only; children are owned by the parent.
type Node struct {
	name     string
	parent   *Node
	store    *TreeStore
	children map[string]*Node
	members  map[string]struct{}
	loaded   bool // children and members read from persistence
}

func newNode(s *TreeStore, name string, parent *Node) *Node {
	return &Node{
		name:     name,
		parent:   parent,
		store:    s,
		children: make(map[string]*Node),
		members:  make(map[string]struct{}),
	}
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Path returns the names from the root down to n.
func (n *Node) Path() Path {
	var rev Path
	for c := n; c != nil; c = c.parent {
		rev = append(rev, c.name)
	}
	p := make(Path, len(rev))
	for i, name := range rev {
		p[len(rev)-1-i] = name
	}
	return p
}

// Child returns the loaded child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()
	c, ok := n.children[name]
	return c, ok
}

// Children returns the loaded children ordered by name.
func (n *Node) Children() []*Node {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Members returns the object names attached directly to n, sorted.
func (n *Node) Members() []string {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()
	return sortedKeys(n.members)
}

// HasMember reports whether object is attached directly to n.
func (n *Node) HasMember(object string) bool {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()
	_, ok := n.members[object]
	return ok
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
