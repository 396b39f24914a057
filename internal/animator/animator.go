package animator

import (
	"math"
	"time"

	"LaborPulse/internal/domain/models"
)

// smoothing is the fraction of the remaining gap closed per frame.
const smoothing = 0.12

// Frame is one rendered animation step.
type Frame struct {
	Display float64 // smoothed value to render
	Integer int64   // floor of Display
	Pulse   bool    // true when the integer part advanced this frame
}

// Animator turns sparse server ticks into a smooth display value. Between
// ticks the target is extrapolated from the last known per-second rate; the
// display eases toward it and never moves backwards.
type Animator struct {
	target    float64
	rate      float64
	perDay    float64
	updatedAt time.Time

	display     float64
	initialized bool
	lastInteger int64
}

func New() *Animator {
	return &Animator{}
}

// SetTarget applies a server push. The first update snaps the display
// directly so a fresh page never animates up from zero.
func (a *Animator) SetTarget(view models.CounterView, at time.Time) {
	a.target = view.Decimal
	a.rate = view.PerSecond
	a.perDay = view.PerDay
	a.updatedAt = at

	if !a.initialized {
		a.display = view.Decimal
		a.lastInteger = int64(math.Floor(view.Decimal))
		a.initialized = true
	}
}

// PerDay returns the last pushed per-day rate, for display alongside the
// counter.
func (a *Animator) PerDay() float64 { return a.perDay }

// Frame advances the animation to now and returns the value to render.
func (a *Animator) Frame(now time.Time) Frame {
	if !a.initialized {
		return Frame{}
	}

	// Extrapolate the target forward so the display keeps moving between
	// server ticks.
	target := a.target
	if elapsed := now.Sub(a.updatedAt).Seconds(); elapsed > 0 {
		target += a.rate * elapsed
	}

	next := a.display + (target-a.display)*smoothing
	// The counter semantics are monotonic; a late or reordered tick must not
	// make the rendered number shrink.
	if next > a.display {
		a.display = next
	}

	integer := int64(math.Floor(a.display))
	pulse := integer > a.lastInteger
	a.lastInteger = integer

	return Frame{Display: a.display, Integer: integer, Pulse: pulse}
}
