// Package hooks turns host "object entered" signals into deferred hook runs.
//
// The dispatcher filters each signal synchronously: hooks switched off,
// temporary objects, unknown objects and objects that are not new are all
// dropped. Anything left is queued and, once the signal has been handled,
// runs the built-in AddToSteelModel hook followed by every script in the
// hooks directory. The first failing hook stops the rest for that object.
package hooks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/chazu/steelhook/pkg/engine"
	"github.com/chazu/steelhook/pkg/gate"
	"github.com/chazu/steelhook/pkg/model"
)

// TempMarker marks temporary objects the host creates while modelling.
const TempMarker = "_TEMP_"

// Dispatcher runs hooks for newly created objects.
type Dispatcher struct {
	objects  model.ObjectLookup
	gate     *gate.Gate
	queue    *Queue
	builtin  []Hook
	engine   *engine.Engine
	dir      string
	logger   *slog.Logger
	onError  func(*HookError)
	enabled  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithScripts runs the scripts found in dir through eng after the built-in
// hooks. The directory is read for every event so edits apply at once.
func WithScripts(eng *engine.Engine, dir string) Option {
	return func(d *Dispatcher) {
		d.engine = eng
		d.dir = dir
	}
}

// WithGate overrides the new-object gate.
func WithGate(g *gate.Gate) Option {
	return func(d *Dispatcher) { d.gate = g }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithErrorHandler is called for every hook failure, after it is logged.
func WithErrorHandler(f func(*HookError)) Option {
	return func(d *Dispatcher) { d.onError = f }
}

// WithHooks replaces the built-in hooks.
func WithHooks(hs ...Hook) Option {
	return func(d *Dispatcher) { d.builtin = hs }
}

// NewDispatcher creates an enabled dispatcher. filer backs the built-in
// AddToSteelModel hook.
func NewDispatcher(objects model.ObjectLookup, filer Filer, queue *Queue, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		objects: objects,
		gate:    gate.New(nil),
		queue:   queue,
		builtin: []Hook{AddToSteelModel{Filer: filer}},
		logger:  slog.Default(),
	}
	d.enabled.Store(true)
	for _, o := range opts {
		o(d)
	}
	return d
}

// Enable switches automatic hook execution on.
func (d *Dispatcher) Enable() { d.enabled.Store(true) }

// Disable switches automatic hook execution off.
func (d *Dispatcher) Disable() { d.enabled.Store(false) }

// SetEnabled switches automatic hook execution.
func (d *Dispatcher) SetEnabled(on bool) { d.enabled.Store(on) }

// Enabled reports whether hooks run.
func (d *Dispatcher) Enabled() bool { return d.enabled.Load() }

// Stats returns how many hook runs were queued and how many failed.
func (d *Dispatcher) Stats() (runs, failures int64) {
	return d.runs.Load(), d.failures.Load()
}

// Attach subscribes the dispatcher to bus.
func (d *Dispatcher) Attach(bus *Bus) (unsubscribe func()) {
	return bus.OnObjectCreated(func(object string) {
		d.ObjectEntered(context.Background(), object)
	})
}

// ObjectEntered handles one host signal. It reports whether hooks were
// queued for the object.
func (d *Dispatcher) ObjectEntered(ctx context.Context, object string) bool {
	if !d.Enabled() {
		return false
	}
	if strings.Contains(object, TempMarker) {
		return false
	}
	o, err := d.objects.SurfaceObject(ctx, object)
	if err != nil {
		if !errors.Is(err, model.ErrObjectNotFound) {
			d.logger.Warn("object lookup failed", "object", object, "error", err)
		}
		return false
	}
	if !d.gate.Eligible(o) {
		d.logger.Debug("object not new, hooks skipped", "object", object)
		return false
	}

	runID := uuid.New()
	if err := d.queue.Post(func(ctx context.Context) {
		d.runHooks(ctx, runID, object)
	}); err != nil {
		d.logger.Warn("hook run not queued", "object", object, "error", err)
		return false
	}
	d.runs.Add(1)
	return true
}

// runHooks runs the built-in hooks and then the scripts in the hooks
// directory, stopping at the first failure. Scripts are loaded only after
// the built-ins succeed.
func (d *Dispatcher) runHooks(ctx context.Context, runID uuid.UUID, object string) {
	if !d.runEach(ctx, runID, object, d.builtin) {
		return
	}
	if d.engine == nil {
		return
	}
	scripts, err := LoadScripts(d.dir)
	if err != nil {
		d.fail(runID, &HookError{Hook: d.dir, Object: object, Err: err})
		return
	}
	hs := make([]Hook, 0, len(scripts))
	for _, sc := range scripts {
		hs = append(hs, ScriptHook{Engine: d.engine, Script: sc})
	}
	d.runEach(ctx, runID, object, hs)
}

func (d *Dispatcher) runEach(ctx context.Context, runID uuid.UUID, object string, hs []Hook) bool {
	for _, h := range hs {
		if err := h.Run(ctx, object); err != nil {
			d.fail(runID, &HookError{Hook: h.Name(), Object: object, Err: err})
			return false
		}
		d.logger.Debug("hook ran", "run", runID.String(), "hook", h.Name(), "object", object)
	}
	return true
}

func (d *Dispatcher) fail(runID uuid.UUID, he *HookError) {
	d.failures.Add(1)
	d.logger.Error("hook failed",
		"run", runID.String(),
		"hook", he.Hook,
		"object", he.Object,
		"error", he.Err,
	)
	if d.onError != nil {
		d.onError(he)
	}
}
