package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/chazu/steelhook/pkg/zone"
)

// ImportProject writes the tables and reference surfaces of a project seed
// file into the store. Tables named in pd replace stored ones.
func (s *Store) ImportProject(ctx context.Context, pd *zone.ProjectData) error {
	names := make([]string, 0, len(pd.Tables))
	for name := range pd.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.Tables.PutTable(ctx, name, pd.Tables[name]); err != nil {
			return fmt.Errorf("import table %s: %w", name, err)
		}
	}
	for _, spec := range pd.Surfaces {
		if err := s.Surfaces.Put(ctx, spec); err != nil {
			return fmt.Errorf("import surface %s: %w", spec.ID, err)
		}
	}
	return nil
}
