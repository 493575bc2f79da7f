package arrangement

import (
	"errors"
	"strings"

	"github.com/chazu/steelhook/pkg/classify"
	"github.com/chazu/steelhook/pkg/zone"
)

// RootName is the fixed name of the arrangement root.
const RootName = "STR*STEEL"

// prefix is carried by every arrangement name.
const prefix = "STR*"

// ErrUnresolved is returned when a path cannot be built because a zone
// lookup found nothing. No partial path is ever returned.
var ErrUnresolved = errors.New("cannot determine arrangement path")

// Path is an ordered list of node names from the root to a leaf.
type Path []string

func (p Path) String() string {
	return strings.Join(p, ":")
}

// Leaf returns the last name of the path.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// LateralNodeName names the level-2 node of a lateral zone.
func LateralNodeName(lz zone.LateralZone) string {
	return prefix + lz.Name
}

// DeckNodeName names the level-3 node of a deck zone inside a lateral zone.
func DeckNodeName(lz zone.LateralZone, dz zone.DeckZone) string {
	return prefix + "DECK_" + lz.IndexLabel + "_" + dz.ID
}

// LeafName names the level-4 node for a structure type code.
func LeafName(code string, lz zone.LateralZone, dz zone.DeckZone) string {
	return prefix + code + "_" + lz.IndexLabel + "_" + dz.ID
}

// BuildPath composes the canonical path for a classification. Either zone
// being nil yields ErrUnresolved.
func BuildPath(c classify.Classification, lz *zone.LateralZone, dz *zone.DeckZone) (Path, error) {
	if lz == nil || dz == nil {
		return nil, ErrUnresolved
	}
	return Path{
		RootName,
		LateralNodeName(*lz),
		DeckNodeName(*lz, *dz),
		LeafName(c.SpecificTypeCode(), *lz, *dz),
	}, nil
}

// BuildResolvedPath is BuildPath for a complete zone resolution.
func BuildResolvedPath(c classify.Classification, res zone.Resolution) Path {
	p, _ := BuildPath(c, &res.Lateral, &res.Deck)
	return p
}
