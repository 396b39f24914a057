package attribution

import (
	"time"

	"LaborPulse/pkg/util"
)

// Deployment maturity ramp breakpoints, in effective months since launch.
// Products launched before the inflection date are credited only for time
// elapsed after it; adoption did not meaningfully begin earlier.
const (
	rampEarlyMonths = 6
	rampMidMonths   = 12
	rampLateMonths  = 24

	rampFloor    = 0.2
	rampEarlyTop = 0.5
	rampMidTop   = 0.75
)

// DeploymentMaturity maps time since launch to a 0..1 adoption factor.
// nil launch means no deployed product and scores zero, as does a launch in
// the future. The ramp is piecewise linear and exact at 0, 6, 12 and 24
// months: 0.2, 0.5, 0.75, 1.0.
func DeploymentMaturity(launch *time.Time, inflection, now time.Time) float64 {
	if launch == nil {
		return 0
	}
	if launch.After(now) {
		return 0
	}

	start := *launch
	if start.Before(inflection) {
		start = inflection
	}

	months := util.MonthsBetween(start, now)
	switch {
	case months < 0:
		return 0
	case months <= rampEarlyMonths:
		return rampFloor + (rampEarlyTop-rampFloor)*months/rampEarlyMonths
	case months <= rampMidMonths:
		return rampEarlyTop + (rampMidTop-rampEarlyTop)*(months-rampEarlyMonths)/(rampMidMonths-rampEarlyMonths)
	case months <= rampLateMonths:
		return rampMidTop + (1.0-rampMidTop)*(months-rampMidMonths)/(rampLateMonths-rampMidMonths)
	default:
		return 1.0
	}
}
