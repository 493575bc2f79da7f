// Package steel files surface objects into the steel arrangement tree.
//
// Automatic filing (FileObject) is fail-fast: the first failing step aborts
// the object and is reported as a *FilingError naming the object and step.
// Reclassify and Relabel work on a selection and report per-object results
// instead, so one bad object never stops the rest.
package steel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chazu/steelhook/pkg/arrangement"
	"github.com/chazu/steelhook/pkg/classify"
	"github.com/chazu/steelhook/pkg/geom"
	"github.com/chazu/steelhook/pkg/labels"
	"github.com/chazu/steelhook/pkg/model"
	"github.com/chazu/steelhook/pkg/zone"
)

// Step names the stage of filing that failed.
type Step string

const (
	StepLookup   Step = "lookup"
	StepClassify Step = "classify"
	StepResolve  Step = "resolve"
	StepDetach   Step = "detach"
	StepPath     Step = "path"
	StepAttach   Step = "attach"
	StepType     Step = "type"
	StepLabels   Step = "labels"
)

// FilingError reports which step failed for which object.
type FilingError struct {
	Object string
	Step   Step
	Err    error
}

func (e *FilingError) Error() string {
	return fmt.Sprintf("file %s: %s: %v", e.Object, e.Step, e.Err)
}

func (e *FilingError) Unwrap() error { return e.Err }

func fail(object string, step Step, err error) error {
	return &FilingError{Object: object, Step: step, Err: err}
}

// ZoneResolver finds the lateral and deck zones of a point.
type ZoneResolver interface {
	Resolve(ctx context.Context, p geom.Vec3) (zone.Resolution, error)
}

// Filing is the outcome of filing one object.
type Filing struct {
	Object         string                  `json:"object"`
	Classification classify.Classification `json:"classification"`
	Resolution     zone.Resolution         `json:"resolution"`
	Path           arrangement.Path        `json:"path"`
	Labels         []string                `json:"labels,omitempty"`
}

// Result is the per-object outcome of a batch operation.
type Result struct {
	Object string           `json:"object"`
	Path   arrangement.Path `json:"path,omitempty"`
	Labels []string         `json:"labels,omitempty"`
	Err    error            `json:"-"`
}

// OK reports whether the object was processed.
func (r Result) OK() bool { return r.Err == nil }

// Service ties the classifier, zone resolver, tree store and label
// assigner together.
type Service struct {
	objects    model.ObjectLookup
	types      model.TypeRegistry
	classifier *classify.Classifier
	zones      ZoneResolver
	tree       *arrangement.TreeStore
	labels     *labels.Assigner
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a filing service.
func NewService(objects model.ObjectLookup, types model.TypeRegistry, zones ZoneResolver,
	tree *arrangement.TreeStore, labelStore labels.Store, opts ...Option) *Service {
	s := &Service{
		objects:    objects,
		types:      types,
		zones:      zones,
		tree:       tree,
		labels:     labels.NewAssigner(labelStore),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.classifier = classify.New(types, s.logger)
	return s
}

// Tree returns the arrangement tree the service files into.
func (s *Service) Tree() *arrangement.TreeStore { return s.tree }

// Objects returns the object lookup.
func (s *Service) Objects() model.ObjectLookup { return s.objects }

// StructureType returns the recorded structure type of the named object.
func (s *Service) StructureType(ctx context.Context, name string) (model.StructureType, bool, error) {
	if s.types == nil {
		return model.StructureType{}, false, nil
	}
	return s.types.StructureType(ctx, name)
}

// FileObject classifies the named object, files it under its arrangement
// path, records its structure type and merges its labels.
func (s *Service) FileObject(ctx context.Context, name string) (*Filing, error) {
	o, err := s.objects.SurfaceObject(ctx, name)
	if err != nil {
		return nil, fail(name, StepLookup, err)
	}
	c, err := s.classifier.Classify(ctx, o)
	if err != nil {
		return nil, fail(name, StepClassify, err)
	}
	return s.file(ctx, o, c)
}

func (s *Service) file(ctx context.Context, o *model.SurfaceObject, c classify.Classification) (*Filing, error) {
	res, path, err := s.locate(ctx, o, c)
	if err != nil {
		return nil, fail(o.Name, StepResolve, err)
	}

	leaf, err := s.tree.GetOrCreatePath(ctx, path)
	if err != nil {
		return nil, fail(o.Name, StepPath, err)
	}
	if err := s.tree.AttachMember(ctx, leaf, o.Name); err != nil {
		return nil, fail(o.Name, StepAttach, err)
	}
	if s.types != nil {
		if err := s.types.SetStructureType(ctx, o.Name, c.Type); err != nil {
			return nil, fail(o.Name, StepType, err)
		}
	}
	lbls, err := s.labels.AssignLabels(ctx, o.Name, res, c)
	if err != nil {
		return nil, fail(o.Name, StepLabels, err)
	}

	s.logger.Info("object filed",
		"object", o.Name,
		"path", path.String(),
		"type", c.SpecificTypeCode(),
		"inherited_from", c.Source,
	)
	return &Filing{Object: o.Name, Classification: c, Resolution: res, Path: path, Labels: lbls}, nil
}

// locate resolves the zones of o and builds its path. Nothing is created.
func (s *Service) locate(ctx context.Context, o *model.SurfaceObject, c classify.Classification) (zone.Resolution, arrangement.Path, error) {
	res, err := s.resolve(ctx, o)
	if err != nil {
		return zone.Resolution{}, nil, err
	}
	path, err := arrangement.BuildPath(c, &res.Lateral, &res.Deck)
	if err != nil {
		return zone.Resolution{}, nil, err
	}
	return res, path, nil
}

func (s *Service) resolve(ctx context.Context, o *model.SurfaceObject) (zone.Resolution, error) {
	res, err := s.zones.Resolve(ctx, o.CenterOfGravity)
	if err != nil {
		if errors.Is(err, zone.ErrUnresolvedLateral) || errors.Is(err, zone.ErrUnresolvedDeck) {
			return zone.Resolution{}, fmt.Errorf("%w: %w", arrangement.ErrUnresolved, err)
		}
		return zone.Resolution{}, err
	}
	return res, nil
}

// ComputePath returns the path the named object would be filed under,
// without touching the tree.
func (s *Service) ComputePath(ctx context.Context, name string) (arrangement.Path, error) {
	o, err := s.objects.SurfaceObject(ctx, name)
	if err != nil {
		return nil, fail(name, StepLookup, err)
	}
	c, err := s.classifier.Classify(ctx, o)
	if err != nil {
		return nil, fail(name, StepClassify, err)
	}
	_, path, err := s.locate(ctx, o, c)
	if err != nil {
		return nil, fail(name, StepResolve, err)
	}
	return path, nil
}

// Reclassify moves each object to the leaf for code, for example
// model.CodePillar to turn bulkhead panels into pillars. Each object is
// detached first; failures are logged and reported and the batch goes on.
func (s *Service) Reclassify(ctx context.Context, objects []string, code string) []Result {
	results := make([]Result, 0, len(objects))
	for _, name := range objects {
		r := s.reclassifyOne(ctx, name, code)
		if r.Err != nil {
			s.logger.Warn("reclassify failed", "object", name, "code", code, "error", r.Err)
		}
		results = append(results, r)
	}
	return results
}

func (s *Service) reclassifyOne(ctx context.Context, name, code string) Result {
	o, err := s.objects.SurfaceObject(ctx, name)
	if err != nil {
		return Result{Object: name, Err: fail(name, StepLookup, err)}
	}
	if _, err := s.tree.DetachMember(ctx, name); err != nil {
		return Result{Object: name, Err: fail(name, StepDetach, err)}
	}

	c := classify.Override(o, code)
	_, path, err := s.locate(ctx, o, c)
	if err != nil {
		return Result{Object: name, Err: fail(name, StepResolve, err)}
	}
	leaf, err := s.tree.GetOrCreatePath(ctx, path)
	if err != nil {
		return Result{Object: name, Path: path, Err: fail(name, StepPath, err)}
	}
	if err := s.tree.AttachMember(ctx, leaf, name); err != nil {
		return Result{Object: name, Path: path, Err: fail(name, StepAttach, err)}
	}
	if s.types != nil {
		if err := s.types.SetStructureType(ctx, name, c.Type); err != nil {
			return Result{Object: name, Path: path, Err: fail(name, StepType, err)}
		}
	}
	return Result{Object: name, Path: path}
}

// Relabel recomputes the labels of each object without refiling it. The
// recorded structure type is used when there is one.
func (s *Service) Relabel(ctx context.Context, objects []string) []Result {
	results := make([]Result, 0, len(objects))
	for _, name := range objects {
		r := s.relabelOne(ctx, name)
		if r.Err != nil {
			s.logger.Warn("relabel failed", "object", name, "error", r.Err)
		}
		results = append(results, r)
	}
	return results
}

func (s *Service) relabelOne(ctx context.Context, name string) Result {
	o, err := s.objects.SurfaceObject(ctx, name)
	if err != nil {
		return Result{Object: name, Err: fail(name, StepLookup, err)}
	}
	c, err := s.recordedClassification(ctx, o)
	if err != nil {
		return Result{Object: name, Err: fail(name, StepClassify, err)}
	}
	res, err := s.resolve(ctx, o)
	if err != nil {
		return Result{Object: name, Err: fail(name, StepResolve, err)}
	}
	lbls, err := s.labels.AssignLabels(ctx, name, res, c)
	if err != nil {
		return Result{Object: name, Err: fail(name, StepLabels, err)}
	}
	return Result{Object: name, Labels: lbls}
}

func (s *Service) recordedClassification(ctx context.Context, o *model.SurfaceObject) (classify.Classification, error) {
	if s.types != nil {
		st, ok, err := s.types.StructureType(ctx, o.Name)
		if err != nil {
			return classify.Classification{}, err
		}
		if ok && !st.IsZero() {
			if st.Generic == "" {
				return classify.Override(o, st.Code), nil
			}
			return classify.Classification{Type: st}, nil
		}
	}
	return s.classifier.Classify(ctx, o)
}
