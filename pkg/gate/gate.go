// Package gate decides whether an object is new enough to be filed
// automatically when the host reports it.
package gate

import (
	"time"

	"github.com/chazu/steelhook/pkg/model"
)

// Window is how recently an object must have been created to be eligible.
const Window = 3 * time.Second

// Clock allows injecting time into the gate and its callers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// IsEligible reports whether o was created less than Window before now.
// Objects the host has only just finished constructing pass; objects that
// merely moved or were reloaded do not.
func IsEligible(o *model.SurfaceObject, now time.Time) bool {
	if o == nil {
		return false
	}
	return now.Sub(o.CreatedAt) < Window
}

// Gate applies IsEligible against a clock.
type Gate struct {
	clock Clock
}

// New creates a gate reading time from clock; nil means the system clock.
func New(clock Clock) *Gate {
	if clock == nil {
		clock = NewSystem()
	}
	return &Gate{clock: clock}
}

// Eligible reports whether o is eligible now.
func (g *Gate) Eligible(o *model.SurfaceObject) bool {
	return IsEligible(o, g.clock.Now())
}
