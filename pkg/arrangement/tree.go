package arrangement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEmptyPath    = errors.New("empty arrangement path")
	ErrRootMismatch = errors.New("path does not start at the arrangement root")
	ErrNameConflict = errors.New("arrangement name already used under another parent")
	ErrNotInTree    = errors.New("node does not belong to this tree")
)

// TreeStore is the in-memory view of the persistent arrangement tree. It is
// safe for concurrent use; creation of any given node name is serialized so
// concurrent materializations of the same path never produce duplicates.
type TreeStore struct {
	persist  Persistence
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	root     *Node
	nodes    map[string]*Node
	memberOf map[string]*Node

	creating singleflight.Group
	loading  singleflight.Group
}

// Option configures a TreeStore.
type Option func(*TreeStore)

// WithNotifier sets the receiver of tree change notifications.
func WithNotifier(n Notifier) Option {
	return func(s *TreeStore) { s.notifier = n }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *TreeStore) { s.logger = l }
}

// WithClock sets the time source used to stamp notifications.
func WithClock(now func() time.Time) Option {
	return func(s *TreeStore) { s.now = now }
}

// NewTreeStore opens the tree held by p, creating the root if needed.
func NewTreeStore(ctx context.Context, p Persistence, opts ...Option) (*TreeStore, error) {
	s := &TreeStore{
		persist:  p,
		notifier: nopNotifier{},
		logger:   slog.Default(),
		now:      time.Now,
		nodes:    make(map[string]*Node),
		memberOf: make(map[string]*Node),
	}
	for _, o := range opts {
		o(s)
	}

	if err := p.EnsureRoot(ctx, RootName); err != nil {
		return nil, fmt.Errorf("ensure root: %w", err)
	}
	s.root = newNode(s, RootName, nil)
	s.nodes[RootName] = s.root
	if err := s.ensureLoaded(ctx, s.root); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the root node.
func (s *TreeStore) Root() *Node { return s.root }

// Lookup returns a loaded node by name.
func (s *TreeStore) Lookup(name string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	return n, ok
}

// Find walks path through loaded and persisted nodes without creating any.
func (s *TreeStore) Find(ctx context.Context, path Path) (*Node, bool, error) {
	if err := s.checkPath(path); err != nil {
		return nil, false, err
	}
	cur := s.root
	for _, name := range path[1:] {
		if err := s.ensureLoaded(ctx, cur); err != nil {
			return nil, false, err
		}
		c, ok := cur.Child(name)
		if !ok {
			return nil, false, nil
		}
		cur = c
	}
	if err := s.ensureLoaded(ctx, cur); err != nil {
		return nil, false, err
	}
	return cur, true, nil
}

// GetOrCreatePath descends from the root, creating missing nodes, and
// returns the leaf. Nodes created before a failure remain; the creations
// are announced in one notification whether or not the call succeeds.
func (s *TreeStore) GetOrCreatePath(ctx context.Context, path Path) (*Node, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}

	b := &batch{id: uuid.New(), path: path, out: s.notifier, now: s.now}
	defer b.flush()

	cur := s.root
	for _, name := range path[1:] {
		child, created, err := s.getOrCreateChild(ctx, cur, name)
		if err != nil {
			return nil, fmt.Errorf("cannot create STR path %s: %w", path, err)
		}
		if created {
			b.add(name)
		}
		cur = child
	}
	if err := s.ensureLoaded(ctx, cur); err != nil {
		return nil, err
	}
	if len(b.created) > 0 {
		s.logger.Debug("arrangement path materialized", "path", path.String(), "created", len(b.created))
	}
	return cur, nil
}

func (s *TreeStore) checkPath(path Path) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if path[0] != RootName {
		return fmt.Errorf("%w: %q", ErrRootMismatch, path[0])
	}
	return nil
}

// getOrCreateChild returns the child of parent named name. Creation is
// keyed by name, so at most one caller creates a given node at a time.
func (s *TreeStore) getOrCreateChild(ctx context.Context, parent *Node, name string) (*Node, bool, error) {
	if err := s.ensureLoaded(ctx, parent); err != nil {
		return nil, false, err
	}
	if c, ok := parent.Child(name); ok {
		return c, false, nil
	}

	leader := false
	v, err, _ := s.creating.Do(name, func() (any, error) {
		leader = true
		return s.createChild(ctx, parent, name)
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(createResult)
	if res.node.parent != parent {
		return nil, false, fmt.Errorf("%w: %q", ErrNameConflict, name)
	}
	return res.node, leader && res.created, nil
}

type createResult struct {
	node    *Node
	created bool
}

func (s *TreeStore) createChild(ctx context.Context, parent *Node, name string) (createResult, error) {
	s.mu.RLock()
	existing, ok := s.nodes[name]
	s.mu.RUnlock()
	if ok {
		if existing.parent != parent {
			return createResult{}, fmt.Errorf("%w: %q is under %q", ErrNameConflict, name, existing.parent.Name())
		}
		return createResult{node: existing}, nil
	}

	stored, found, err := s.persist.Lookup(ctx, name)
	if err != nil {
		return createResult{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	if found && stored != parent.name {
		return createResult{}, fmt.Errorf("%w: %q is under %q", ErrNameConflict, name, stored)
	}
	if !found {
		if err := s.persist.CreateChild(ctx, parent.name, name); err != nil {
			return createResult{}, fmt.Errorf("create %s under %s: %w", name, parent.name, err)
		}
	}

	n := newNode(s, name, parent)
	n.loaded = !found
	s.mu.Lock()
	parent.children[name] = n
	s.nodes[name] = n
	s.mu.Unlock()
	return createResult{node: n, created: !found}, nil
}

// ensureLoaded reads the children and members of n from persistence once.
func (s *TreeStore) ensureLoaded(ctx context.Context, n *Node) error {
	s.mu.RLock()
	loaded := n.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := s.loading.Do(n.name, func() (any, error) {
		s.mu.RLock()
		loaded := n.loaded
		s.mu.RUnlock()
		if loaded {
			return nil, nil
		}

		names, err := s.persist.Children(ctx, n.name)
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", n.name, err)
		}
		members, err := s.persist.Members(ctx, n.name)
		if err != nil {
			return nil, fmt.Errorf("list members of %s: %w", n.name, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, name := range names {
			if _, ok := n.children[name]; ok {
				continue
			}
			c := newNode(s, name, n)
			n.children[name] = c
			s.nodes[name] = c
		}
		for _, obj := range members {
			n.members[obj] = struct{}{}
			s.memberOf[obj] = n
		}
		n.loaded = true
		return nil, nil
	})
	return err
}

// LoadAll reads the entire tree from persistence.
func (s *TreeStore) LoadAll(ctx context.Context) error {
	stack := []*Node{s.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := s.ensureLoaded(ctx, n); err != nil {
			return err
		}
		stack = append(stack, n.Children()...)
	}
	return nil
}

// AttachMember attaches object to leaf, moving it off any node that held it.
func (s *TreeStore) AttachMember(ctx context.Context, leaf *Node, object string) error {
	if leaf == nil || leaf.store != s {
		return ErrNotInTree
	}
	prev, err := s.persist.NodeOf(ctx, object)
	if err != nil {
		return fmt.Errorf("locate %s: %w", object, err)
	}
	if prev == leaf.name && leaf.HasMember(object) {
		return nil
	}
	if err := s.persist.AttachMember(ctx, leaf.name, object); err != nil {
		return fmt.Errorf("attach %s to %s: %w", object, leaf.name, err)
	}

	s.mu.Lock()
	if old, ok := s.memberOf[object]; ok {
		delete(old.members, object)
	} else if n, ok := s.nodes[prev]; ok {
		delete(n.members, object)
	}
	leaf.members[object] = struct{}{}
	s.memberOf[object] = leaf
	s.mu.Unlock()

	s.notifier.Publish(Notification{
		BatchID: uuid.New(),
		Kind:    EventMemberAttached,
		Nodes:   []string{leaf.name},
		Object:  object,
		At:      s.now(),
	})
	return nil
}

// DetachMember removes object from whatever node holds it and returns that
// node's name ("" when it was not attached). The node itself stays.
func (s *TreeStore) DetachMember(ctx context.Context, object string) (string, error) {
	prev, err := s.persist.DetachMember(ctx, object)
	if err != nil {
		return "", fmt.Errorf("detach %s: %w", object, err)
	}

	s.mu.Lock()
	if n, ok := s.memberOf[object]; ok {
		delete(n.members, object)
		delete(s.memberOf, object)
	}
	s.mu.Unlock()

	if prev != "" {
		s.notifier.Publish(Notification{
			BatchID: uuid.New(),
			Kind:    EventMemberDetached,
			Nodes:   []string{prev},
			Object:  object,
			At:      s.now(),
		})
	}
	return prev, nil
}

// NodeOf returns the name of the node holding object, or "".
func (s *TreeStore) NodeOf(ctx context.Context, object string) (string, error) {
	s.mu.RLock()
	n, ok := s.memberOf[object]
	s.mu.RUnlock()
	if ok {
		return n.name, nil
	}
	return s.persist.NodeOf(ctx, object)
}
