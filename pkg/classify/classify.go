// Package classify derives the structural type of a surface object from its
// orientation, or inherits it from the object it was copied or reflected from.
package classify

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/model"
)

// refPattern matches reference definitions such as "REF B", "ref, B".
var refPattern = regexp.MustCompile(`(?im)^REF\s*,?\s+([^\n\s,;]+)\s*$`)

// Classification is the result of classifying one object.
type Classification struct {
	Type model.StructureType

	// Source names the object the type was inherited from; empty when the
	// type was derived from geometry or given as an override.
	Source string
}

// SpecificTypeCode returns the code used in leaf arrangement names.
func (c Classification) SpecificTypeCode() string { return c.Type.Code }

// GenericTypeCode returns the coarse type used as a label.
func (c Classification) GenericTypeCode() string { return string(c.Type.Generic) }

// Inherited reports whether the type came from a referenced object.
func (c Classification) Inherited() bool { return c.Source != "" }

// Classifier assigns structure types. The registry supplies the types of
// previously classified objects for reference inheritance.
type Classifier struct {
	types  model.TypeRegistry
	logger *slog.Logger
}

// New creates a classifier backed by types. A nil logger uses slog.Default.
func New(types model.TypeRegistry, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{types: types, logger: logger}
}

// Classify returns the inherited type when o's definition references an
// already typed object, and the geometric type otherwise. A failed registry
// read is logged and treated like an untyped reference.
func (c *Classifier) Classify(ctx context.Context, o *model.SurfaceObject) (Classification, error) {
	if ref, ok := ReferencedName(o.Definition); ok && c.types != nil {
		st, found, err := c.types.StructureType(ctx, ref)
		if err != nil {
			c.logger.Warn("reference type lookup failed, using geometry",
				"object", o.Name, "ref", ref, "error", err)
		} else if found && !st.IsZero() {
			return Classification{Type: st, Source: ref}, nil
		}
	}
	return Classification{Type: Geometric(o.BoundingBox)}, nil
}

// Override returns a classification carrying code regardless of geometry.
// The generic type is kept from geometry for codes that do not define one.
func Override(o *model.SurfaceObject, code string) Classification {
	st := model.TypeForCode(code)
	if st.Generic == "" {
		st.Generic = Geometric(o.BoundingBox).Generic
	}
	return Classification{Type: st}
}

// Geometric classifies a bounding box by its thinnest axis.
func Geometric(b geom.Box) model.StructureType {
	switch b.MinExtentAxis() {
	case geom.AxisX:
		return model.TypeForCode(model.CodeTBH)
	case geom.AxisY:
		return model.TypeForCode(model.CodeLBH)
	default:
		return model.TypeForCode(model.CodeDeck)
	}
}

// ReferencedName extracts the referenced object name from a definition.
func ReferencedName(definition string) (string, bool) {
	m := refPattern.FindStringSubmatch(definition)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}
