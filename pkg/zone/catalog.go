package zone

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Catalog loads zone definitions from a TableSource and caches them for the
// lifetime of a project version. Call Reload when the version changes.
type Catalog struct {
	src    TableSource
	coords Coordinates
	logger *slog.Logger

	mu      sync.Mutex
	lateral []LateralZone
	decks   []DeckZone
	loaded  bool
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithCoordinates sets the ship coordinate conversion for zone limits.
func WithCoordinates(c Coordinates) CatalogOption {
	return func(cat *Catalog) { cat.coords = c }
}

// WithLogger sets the catalog logger.
func WithLogger(l *slog.Logger) CatalogOption {
	return func(cat *Catalog) { cat.logger = l }
}

// NewCatalog creates a catalog over src.
func NewCatalog(src TableSource, opts ...CatalogOption) *Catalog {
	c := &Catalog{src: src, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LateralZones returns the lateral zones ordered by name, descending.
func (c *Catalog) LateralZones(ctx context.Context) ([]LateralZone, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LateralZone(nil), c.lateral...), nil
}

// DeckZones returns the deck zones in table order.
func (c *Catalog) DeckZones(ctx context.Context) ([]DeckZone, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeckZone(nil), c.decks...), nil
}

// Reload drops the cached tables; the next query reads them again.
func (c *Catalog) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lateral, c.decks, c.loaded = nil, nil, false
}

func (c *Catalog) ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	lateral, err := LoadLateralZones(ctx, c.src, c.coords)
	if err != nil {
		return err
	}
	decks, err := LoadDeckZones(ctx, c.src)
	if err != nil {
		return err
	}
	c.lateral, c.decks, c.loaded = lateral, decks, true
	c.logger.Debug("zone catalog loaded", "lateral", len(lateral), "decks", len(decks))
	return nil
}

// LoadLateralZones reads the lateral zone table. An absent table yields no
// zones. The result is ordered by name, descending.
func LoadLateralZones(ctx context.Context, src TableSource, coords Coordinates) ([]LateralZone, error) {
	t, ok, err := src.Table(ctx, LateralTableName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", LateralTableName, err)
	}
	if !ok {
		return nil, nil
	}

	zones := make([]LateralZone, 0, len(t.Rows))
	for i, r := range t.Rows {
		z, err := lateralFromRow(r, coords)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", LateralTableName, i+1, err)
		}
		zones = append(zones, z)
	}
	sortLateral(zones)
	return zones, nil
}

func lateralFromRow(r Row, coords Coordinates) (LateralZone, error) {
	var z LateralZone
	var err error
	if z.Name, err = r.Get(ColName); err != nil {
		return z, err
	}
	if z.IndexLabel, err = r.Get(ColIndex); err != nil {
		return z, err
	}
	lower, err := r.Get(ColLower)
	if err != nil {
		return z, err
	}
	upper, err := r.Get(ColUpper)
	if err != nil {
		return z, err
	}
	if z.RangeMin, err = coords.Parse(lower); err != nil {
		return z, fmt.Errorf("%s: %w", ColLower, err)
	}
	if z.RangeMax, err = coords.Parse(upper); err != nil {
		return z, fmt.Errorf("%s: %w", ColUpper, err)
	}
	return z, nil
}

// LoadDeckZones reads the deck zone table. An absent table yields no zones.
func LoadDeckZones(ctx context.Context, src TableSource) ([]DeckZone, error) {
	t, ok, err := src.Table(ctx, DeckTableName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DeckTableName, err)
	}
	if !ok {
		return nil, nil
	}

	zones := make([]DeckZone, 0, len(t.Rows))
	for i, r := range t.Rows {
		id, err := r.Get(ColName)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", DeckTableName, i+1, err)
		}
		surface, err := r.Get(ColSurface)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", DeckTableName, i+1, err)
		}
		zones = append(zones, DeckZone{ID: id, ReferenceSurfaceID: surface})
	}
	return zones, nil
}

func sortLateral(zones []LateralZone) {
	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].Name > zones[j].Name
	})
}
