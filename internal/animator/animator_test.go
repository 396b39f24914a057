package animator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"LaborPulse/internal/domain/models"
)

var t0 = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func view(decimal, perSecond float64) models.CounterView {
	return models.CounterView{Decimal: decimal, PerSecond: perSecond}
}

func TestFirstTargetSnapsDisplay(t *testing.T) {
	a := New()
	a.SetTarget(view(1000.5, 0.1), t0)

	f := a.Frame(t0)
	assert.InDelta(t, 1000.5, f.Display, 0.1)
	assert.Equal(t, int64(1000), f.Integer)
	assert.False(t, f.Pulse)
}

func TestFrameEasesTowardTarget(t *testing.T) {
	a := New()
	a.SetTarget(view(1000, 0), t0)
	a.Frame(t0)

	// Jump the target; each frame closes 12% of the remaining gap.
	a.SetTarget(view(1100, 0), t0)
	f1 := a.Frame(t0)
	assert.InDelta(t, 1012, f1.Display, 0.01)

	f2 := a.Frame(t0)
	assert.InDelta(t, 1012+(1100-1012)*0.12, f2.Display, 0.01)
	assert.Greater(t, f2.Display, f1.Display)
	assert.Less(t, f2.Display, 1100.0)
}

func TestFrameExtrapolatesBetweenTicks(t *testing.T) {
	a := New()
	a.SetTarget(view(1000, 2.0), t0)
	a.Frame(t0)

	// 10s with no new tick: target has drifted to ~1020, display follows.
	f := a.Frame(t0.Add(10 * time.Second))
	assert.Greater(t, f.Display, 1000.0)
}

func TestDisplayNeverDecreases(t *testing.T) {
	a := New()
	a.SetTarget(view(1000, 0), t0)
	a.Frame(t0)

	// A lower target (reordered delivery) must not pull the display down.
	a.SetTarget(view(900, 0), t0)
	prev := 0.0
	for i := 0; i < 50; i++ {
		f := a.Frame(t0)
		assert.GreaterOrEqual(t, f.Display, prev)
		prev = f.Display
	}
	assert.InDelta(t, 1000, prev, 0.001)
}

func TestPulseOnIntegerBoundary(t *testing.T) {
	a := New()
	a.SetTarget(view(999.9, 0), t0)
	a.Frame(t0)

	a.SetTarget(view(1010, 0), t0)

	pulses := 0
	var prev int64
	for i := 0; i < 200; i++ {
		f := a.Frame(t0)
		if f.Pulse {
			pulses++
			assert.Greater(t, f.Integer, prev)
		}
		prev = f.Integer
	}
	// 999 -> 1009 crosses ten integer boundaries.
	assert.Equal(t, 10, pulses)
}

func TestFrameBeforeFirstTargetIsZero(t *testing.T) {
	a := New()
	f := a.Frame(t0)
	assert.Zero(t, f.Display)
	assert.False(t, f.Pulse)
}
