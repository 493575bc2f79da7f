// Package zone loads the lateral ("main vertical") and deck zone tables of a
// project and resolves which zones a point belongs to.
package zone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/steelhook/pkg/geom"
)

// Table names and columns of the external zone tables.
const (
	LateralTableName = "TAB*MVZ"
	DeckTableName    = "TAB*DECKS"

	ColName    = "NAME"
	ColLower   = "LLIMIT"
	ColUpper   = "ULIMIT"
	ColIndex   = "NR"
	ColSurface = "SURFACE"
)

var (
	ErrUnresolvedLateral = errors.New("no lateral zone contains point")
	ErrUnresolvedDeck    = errors.New("no deck zone near point")
	ErrMissingColumn     = errors.New("missing column")
)

// LateralZone is a longitudinal interval of the ship.
type LateralZone struct {
	Name       string  `json:"name"`
	IndexLabel string  `json:"index_label"`
	RangeMin   float64 `json:"range_min"`
	RangeMax   float64 `json:"range_max"`
}

// Range returns the zone interval along X.
func (z LateralZone) Range() geom.Range {
	return geom.Range{Min: z.RangeMin, Max: z.RangeMax}
}

func (z LateralZone) String() string {
	return fmt.Sprintf("%s %g:%g", z.Name, z.RangeMin, z.RangeMax)
}

// DeckZone is a vertical zone identified by its reference surface.
type DeckZone struct {
	ID                 string `json:"id"`
	ReferenceSurfaceID string `json:"reference_surface_id"`
}

func (z DeckZone) String() string {
	return z.ID + " " + z.ReferenceSurfaceID
}

// Row is one row of an external table, keyed by column name.
type Row map[string]string

// Get returns the trimmed value of col.
func (r Row) Get(col string) (string, error) {
	v, ok := r[col]
	if !ok {
		return "", fmt.Errorf("%w %s", ErrMissingColumn, col)
	}
	return strings.TrimSpace(v), nil
}

// Table is an external dataset addressed by name.
type Table struct {
	Name string
	Rows []Row
}

// TableSource provides project tables.
type TableSource interface {
	// Table returns the named table and whether it exists.
	Table(ctx context.Context, name string) (*Table, bool, error)
}
