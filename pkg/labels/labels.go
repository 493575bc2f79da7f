// Package labels maintains the descriptive label set of each surface object.
package labels

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/steelhook/pkg/classify"
	"github.com/chazu/steelhook/pkg/zone"
)

// DeckPrefix starts the deck label of an object.
const DeckPrefix = "DECK_"

// Store is the external label storage.
type Store interface {
	Labels(ctx context.Context, object string) ([]string, error)
	SetLabels(ctx context.Context, object string, labels []string) error
}

// Candidates returns the labels describing an object filed in the given
// zones with the given classification.
func Candidates(res zone.Resolution, c classify.Classification) []string {
	return []string{res.Lateral.Name, DeckPrefix + res.Deck.ID, c.GenericTypeCode()}
}

// Merge returns the sorted union of existing and add with empty strings and
// duplicates dropped.
func Merge(existing, add []string) []string {
	set := make(map[string]struct{}, len(existing)+len(add))
	for _, l := range existing {
		if l != "" {
			set[l] = struct{}{}
		}
	}
	for _, l := range add {
		if l != "" {
			set[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Assigner merges computed labels into the stored set.
type Assigner struct {
	store Store
}

// NewAssigner creates an assigner writing to store.
func NewAssigner(store Store) *Assigner {
	return &Assigner{store: store}
}

// AssignLabels unions the candidate labels with the object's stored labels,
// writes the result back and returns it. Stored labels are never removed.
func (a *Assigner) AssignLabels(ctx context.Context, object string, res zone.Resolution, c classify.Classification) ([]string, error) {
	existing, err := a.store.Labels(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("read labels of %s: %w", object, err)
	}
	merged := Merge(existing, Candidates(res, c))
	if err := a.store.SetLabels(ctx, object, merged); err != nil {
		return nil, fmt.Errorf("write labels of %s: %w", object, err)
	}
	return merged, nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	labels map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{labels: make(map[string][]string)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Labels(_ context.Context, object string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.labels[object]...), nil
}

func (m *MemoryStore) SetLabels(_ context.Context, object string, labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[object] = append([]string(nil), labels...)
	return nil
}
