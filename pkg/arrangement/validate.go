package arrangement

import "fmt"

// Severity indicates whether a validation finding means the tree is broken
// or merely unusual.
type Severity int

const (
	SeverityError   Severity = iota // tree invariant violated
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Node     string // node with the problem ("" if tree-level)
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.Node, e.Message)
}

// Validate checks the loaded part of the tree: one root, names unique
// across the tree, children keyed by their own name, parent links pointing
// back, and every member held by exactly one node. It never mutates the
// tree. An empty result means the tree is valid.
func Validate(s *TreeStore) []ValidationError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []ValidationError
	errs = append(errs, validateRoot(s)...)
	errs = append(errs, validateStructure(s)...)
	errs = append(errs, validateMembers(s)...)
	return errs
}

func validateRoot(s *TreeStore) []ValidationError {
	var errs []ValidationError
	if s.root == nil {
		return []ValidationError{{Message: "tree has no root", Severity: SeverityError}}
	}
	if s.root.name != RootName {
		errs = append(errs, ValidationError{
			Node:     s.root.name,
			Message:  fmt.Sprintf("root must be named %s", RootName),
			Severity: SeverityError,
		})
	}
	if s.root.parent != nil {
		errs = append(errs, ValidationError{
			Node:     s.root.name,
			Message:  "root has a parent",
			Severity: SeverityError,
		})
	}
	for name, n := range s.nodes {
		if n.parent == nil && n != s.root {
			errs = append(errs, ValidationError{
				Node:     name,
				Message:  "second root",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateStructure walks down from the root so each reachable node is seen
// exactly once when the tree is well formed.
func validateStructure(s *TreeStore) []ValidationError {
	if s.root == nil {
		return nil
	}
	var errs []ValidationError
	seen := make(map[string]*Node)

	var walk func(n *Node)
	walk = func(n *Node) {
		if prev, ok := seen[n.name]; ok {
			if prev != n {
				errs = append(errs, ValidationError{
					Node:     n.name,
					Message:  "name used by more than one node",
					Severity: SeverityError,
				})
			}
			return
		}
		seen[n.name] = n
		if idx, ok := s.nodes[n.name]; !ok || idx != n {
			errs = append(errs, ValidationError{
				Node:     n.name,
				Message:  "node missing from name index",
				Severity: SeverityError,
			})
		}
		for _, key := range sortedNodeKeys(n.children) {
			c := n.children[key]
			if c.name != key {
				errs = append(errs, ValidationError{
					Node:     c.name,
					Message:  fmt.Sprintf("listed under %s as %q", n.name, key),
					Severity: SeverityError,
				})
			}
			if c.parent != n {
				errs = append(errs, ValidationError{
					Node:     c.name,
					Message:  fmt.Sprintf("parent link does not point back to %s", n.name),
					Severity: SeverityError,
				})
			}
			walk(c)
		}
	}
	walk(s.root)

	for name := range s.nodes {
		if _, ok := seen[name]; !ok {
			errs = append(errs, ValidationError{
				Node:     name,
				Message:  "not reachable from the root",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateMembers(s *TreeStore) []ValidationError {
	var errs []ValidationError
	holders := make(map[string][]string)
	for _, name := range sortedNodeKeys(s.nodes) {
		n := s.nodes[name]
		for obj := range n.members {
			holders[obj] = append(holders[obj], name)
		}
		if len(n.members) > 0 && len(n.children) > 0 {
			errs = append(errs, ValidationError{
				Node:     name,
				Message:  "members attached to an interior node",
				Severity: SeverityWarning,
			})
		}
	}
	for _, obj := range sortedStringKeys(holders) {
		if nodes := holders[obj]; len(nodes) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("object %s attached to %d nodes: %v", obj, len(nodes), nodes),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func sortedNodeKeys(m map[string]*Node) []string {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedStringKeys(m map[string][]string) []string {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return sortedKeys(set)
}
