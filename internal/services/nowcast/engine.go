package nowcast

import (
	"time"

	"sync"

	"github.com/jonboulle/clockwork"

	"LaborPulse/internal/domain/models"
	"LaborPulse/pkg/config"
	"LaborPulse/pkg/util"
)

const (
	daysPerMonth  = 30.0
	secondsPerDay = 86400.0
)

// Engine converts slow monthly measurements into a smoothly advancing live
// counter. It owns NowcastState exclusively; Refresh and Tick serialize on one
// mutex so a refresh-in-progress can never be read mid-update by a tick.
type Engine struct {
	mu sync.Mutex

	exposure  map[string]models.RateTriple
	other     models.RateTriple
	epoch     time.Time
	modelName string
	clock     clockwork.Clock
	jitter    Jitter

	state    models.NowcastState
	agg      models.Aggregates
	readings []models.SeriesReading
	asOf     string
	attrRate float64 // mid aggregate as percent of overall layoffs
	fresh    bool
	seeded   bool
	warnings []string
}

// NewEngine builds an engine from the static exposure model.
func NewEngine(model *config.ModelConfig, jitter Jitter, clock clockwork.Clock) *Engine {
	exposure := make(map[string]models.RateTriple, len(model.Exposure))
	for id, r := range model.Exposure {
		exposure[id] = models.RateTriple{Low: r.Low, Mid: r.Mid, High: r.High}
	}

	return &Engine{
		exposure:  exposure,
		other:     models.RateTriple{Low: model.OtherRate.Low, Mid: model.OtherRate.Mid, High: model.OtherRate.High},
		epoch:     model.EpochDate(),
		modelName: model.Name,
		clock:     clock,
		jitter:    jitter,
		warnings:  model.Warnings(),
	}
}

// Restore adopts a previously persisted counter when it exceeds the current
// one. The counter never moves backwards, so a stale persisted value is
// ignored rather than applied.
func (e *Engine) Restore(state models.NowcastState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state.IntegerValue > e.state.IntegerValue {
		e.state.IntegerValue = state.IntegerValue
		e.state.FractionalRemainder = state.FractionalRemainder
	}
}

// Readings returns the latest series readings, for the fetcher to carry
// forward last good values on partial failures.
func (e *Engine) Readings() []models.SeriesReading {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.SeriesReading, len(e.readings))
	copy(out, e.readings)
	return out
}

// Refresh recomputes the per-day and per-second rates from a fetch batch.
// The whole recompute happens under the lock as one atomic update. A batch
// without a usable overall total leaves the previous rates in place; partial
// data must not erase a previously valid estimate.
func (e *Engine) Refresh(batch *models.RefreshBatch) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.readings = batch.Readings

	if batch.Failed() || batch.Total == nil || *batch.Total <= 0 {
		e.fresh = false
		return
	}

	var agg models.Aggregates
	for _, r := range batch.Readings {
		if r.LatestValue == nil {
			continue
		}
		rate, ok := e.exposure[r.Category]
		if !ok {
			rate = e.other
		}
		v := *r.LatestValue
		agg.MonthlyLow += v * rate.Low
		agg.MonthlyMid += v * rate.Mid
		agg.MonthlyHigh += v * rate.High
		agg.Covered += v
	}

	if residual := *batch.Total - agg.Covered; residual > 0 {
		agg.Residual = residual
		agg.MonthlyLow += residual * e.other.Low
		agg.MonthlyMid += residual * e.other.Mid
		agg.MonthlyHigh += residual * e.other.High
	}

	e.agg = agg
	e.asOf = batch.AsOf
	e.attrRate = agg.MonthlyMid / *batch.Total * 100

	e.state.PerDayLow = agg.MonthlyLow / daysPerMonth
	e.state.PerDayMid = agg.MonthlyMid / daysPerMonth
	e.state.PerDayHigh = agg.MonthlyHigh / daysPerMonth
	e.state.PerSecondRate = e.state.PerDayMid / secondsPerDay
	e.fresh = true

	// The historical running total seeds the counter exactly once, on the
	// first successful recompute.
	if !e.seeded {
		days := util.DaysBetween(e.epoch, e.clock.Now())
		if days > 0 {
			if seed := int64(days * e.state.PerDayMid); seed > e.state.IntegerValue {
				e.state.IntegerValue = seed
			}
		}
		e.seeded = true
	}
}

// Tick advances the fractional counter by elapsed wall time. Whole units
// carry into the integer counter, which never decreases; the remainder always
// stays in [0,1). Tick(0) changes nothing.
func (e *Engine) Tick(elapsed time.Duration) models.NowcastState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if elapsed > 0 {
		e.state.FractionalRemainder += e.state.PerSecondRate * elapsed.Seconds() * e.jitter.Factor()
		for e.state.FractionalRemainder >= 1 {
			e.state.FractionalRemainder--
			e.state.IntegerValue++
		}
		e.state.LastTick = e.clock.Now()
	}
	return e.state
}

// Snapshot returns the public counter view.
func (e *Engine) Snapshot() models.CounterView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() models.CounterView {
	return models.CounterView{
		Counter:        e.state.IntegerValue,
		Decimal:        float64(e.state.IntegerValue) + e.state.FractionalRemainder,
		PerSecond:      e.state.PerSecondRate,
		PerDay:         e.state.PerDayMid,
		PerDayLow:      e.state.PerDayLow,
		PerDayHigh:     e.state.PerDayHigh,
		DataAsOf:       e.asOf,
		AttributedRate: e.attrRate,
		Model:          e.modelName,
		Fresh:          e.fresh,
	}
}

// State returns a copy of the authoritative state, for persistence.
func (e *Engine) State() models.NowcastState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Aggregates returns the latest computed monthly aggregates.
func (e *Engine) Aggregates() models.Aggregates {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg
}

// Fresh reports whether the last refresh produced usable data.
func (e *Engine) Fresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fresh
}

// Diagnostics returns the raw audit dump: readings, aggregates and the
// exposure table in effect.
func (e *Engine) Diagnostics() models.Diagnostics {
	e.mu.Lock()
	defer e.mu.Unlock()

	readings := make([]models.SeriesReading, len(e.readings))
	copy(readings, e.readings)

	exposure := make(map[string]models.RateTriple, len(e.exposure))
	for k, v := range e.exposure {
		exposure[k] = v
	}

	return models.Diagnostics{
		Readings:   readings,
		Aggregates: e.agg,
		Exposure:   exposure,
		OtherRate:  e.other,
		State:      e.state,
		Warnings:   e.warnings,
	}
}
