package nowcast

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaborPulse/internal/domain/models"
	"LaborPulse/pkg/config"
)

func testModel() *config.ModelConfig {
	return &config.ModelConfig{
		Name:  "test-model",
		Epoch: "2025-01-01",
		Exposure: map[string]config.ExposureRate{
			"information":  {Low: 0.05, Mid: 0.12, High: 0.22},
			"professional": {Low: 0.04, Mid: 0.10, High: 0.18},
			"finance":      {Low: 0.03, Mid: 0.08, High: 0.15},
		},
		OtherRate: config.ExposureRate{Low: 0.01, Mid: 0.03, High: 0.06},
	}
}

func fv(v float64) *float64 { return &v }

func goodBatch() *models.RefreshBatch {
	return &models.RefreshBatch{
		Readings: []models.SeriesReading{
			{Category: "information", SeriesID: "s1", LatestValue: fv(20000), AsOf: "2026-06"},
			{Category: "professional", SeriesID: "s2", LatestValue: fv(30000), AsOf: "2026-06"},
			{Category: "finance", SeriesID: "s3", LatestValue: fv(10000), AsOf: "2026-06"},
		},
		Total: fv(100000),
		AsOf:  "2026-06",
	}
}

func newTestEngine(t *testing.T) (*Engine, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	return NewEngine(testModel(), Fixed(1), clock), clock
}

func TestRefreshComputesRates(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())

	agg := eng.Aggregates()
	// 20000*0.12 + 30000*0.10 + 10000*0.08 = 6200 from tracked sectors,
	// plus (100000-60000)*0.03 = 1200 residual.
	assert.InDelta(t, 7400, agg.MonthlyMid, 1e-6)
	assert.InDelta(t, 60000, agg.Covered, 1e-6)
	assert.InDelta(t, 40000, agg.Residual, 1e-6)

	view := eng.Snapshot()
	assert.True(t, view.Fresh)
	assert.InDelta(t, 7400.0/30, view.PerDay, 1e-6)
	assert.InDelta(t, 7400.0/30/86400, view.PerSecond, 1e-9)
	assert.InDelta(t, 7.4, view.AttributedRate, 1e-6)
	assert.Equal(t, "2026-06", view.DataAsOf)
}

func TestRefreshSeedsCounterOnce(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())

	// 181 days from 2025-01-01 to 2026-07-01... actually 546 days.
	days := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).
		Sub(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24
	want := int64(days * 7400.0 / 30)
	assert.Equal(t, want, eng.State().IntegerValue)

	// A second refresh with a higher rate must not re-seed.
	batch := goodBatch()
	batch.Total = fv(500000)
	eng.Refresh(batch)
	assert.Equal(t, want, eng.State().IntegerValue)
}

func TestTickCarriesWholeUnits(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())

	start := eng.State().IntegerValue
	perSec := eng.State().PerSecondRate

	// Enough elapsed time for several whole units.
	secs := 5.0 / perSec
	st := eng.Tick(time.Duration(secs * float64(time.Second)))

	assert.GreaterOrEqual(t, st.IntegerValue, start+4)
	assert.GreaterOrEqual(t, st.FractionalRemainder, 0.0)
	assert.Less(t, st.FractionalRemainder, 1.0)
}

func TestTickZeroElapsedNoop(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())

	before := eng.State()
	after := eng.Tick(0)
	assert.Equal(t, before, after)

	after = eng.Tick(-time.Second)
	assert.Equal(t, before, after)
}

func TestTickMonotonic(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())

	prev := eng.State().IntegerValue
	for i := 0; i < 100; i++ {
		st := eng.Tick(250 * time.Millisecond)
		assert.GreaterOrEqual(t, st.IntegerValue, prev)
		assert.GreaterOrEqual(t, st.FractionalRemainder, 0.0)
		assert.Less(t, st.FractionalRemainder, 1.0)
		prev = st.IntegerValue
	}
}

func TestRefreshPartialFailureStillComputes(t *testing.T) {
	eng, _ := newTestEngine(t)

	batch := goodBatch()
	// One series failed this cycle but carries its previous good value.
	batch.Readings[2].Error = "provider: 502"
	batch.Readings[2].Stale = true
	eng.Refresh(batch)

	assert.True(t, eng.Fresh())
	agg := eng.Aggregates()
	assert.InDelta(t, 7400, agg.MonthlyMid, 1e-6)
}

func TestRefreshTotalUnavailableKeepsPreviousRates(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())
	wantRate := eng.State().PerSecondRate
	require.Greater(t, wantRate, 0.0)

	bad := goodBatch()
	bad.Total = nil
	bad.TotalErr = "provider: timeout"
	eng.Refresh(bad)

	assert.Equal(t, wantRate, eng.State().PerSecondRate)
	assert.False(t, eng.Fresh())
}

func TestRefreshAllSeriesFailedKeepsPreviousRates(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())
	want := eng.State()

	bad := goodBatch()
	for i := range bad.Readings {
		bad.Readings[i].Error = "provider: down"
		bad.Readings[i].LatestValue = nil
	}
	eng.Refresh(bad)

	assert.Equal(t, want.PerDayMid, eng.State().PerDayMid)
	assert.False(t, eng.Fresh())
	// The failing readings are still exposed for diagnostics.
	assert.Equal(t, "provider: down", eng.Readings()[0].Error)
}

func TestRestoreTakesLargerCounter(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Restore(models.NowcastState{IntegerValue: 5000, FractionalRemainder: 0.25})
	assert.Equal(t, int64(5000), eng.State().IntegerValue)

	// A smaller persisted counter never rolls the live one back.
	eng.Restore(models.NowcastState{IntegerValue: 100})
	assert.Equal(t, int64(5000), eng.State().IntegerValue)
}

func TestRestoreThenSeedTakesMax(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Restore(models.NowcastState{IntegerValue: 10})

	eng.Refresh(goodBatch())
	// Seed (hundreds of days at ~246/day) dwarfs the restored value.
	assert.Greater(t, eng.State().IntegerValue, int64(10))
}

func TestUnknownCategoryFallsBackToOtherRate(t *testing.T) {
	eng, _ := newTestEngine(t)

	batch := &models.RefreshBatch{
		Readings: []models.SeriesReading{
			{Category: "mystery", SeriesID: "s9", LatestValue: fv(10000), AsOf: "2026-06"},
		},
		Total: fv(10000),
		AsOf:  "2026-06",
	}
	eng.Refresh(batch)

	agg := eng.Aggregates()
	assert.InDelta(t, 10000*0.03, agg.MonthlyMid, 1e-6)
}

func TestUniformJitterBounds(t *testing.T) {
	j := NewUniformJitter(0.1, 42)
	for i := 0; i < 1000; i++ {
		f := j.Factor()
		assert.GreaterOrEqual(t, f, 0.9)
		assert.LessOrEqual(t, f, 1.1)
	}
}

func TestUniformJitterZeroSpreadIsFixed(t *testing.T) {
	j := NewUniformJitter(0, 1)
	assert.Equal(t, 1.0, j.Factor())
}

func TestDiagnosticsExposesModelTables(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Refresh(goodBatch())

	d := eng.Diagnostics()
	assert.Len(t, d.Readings, 3)
	assert.Contains(t, d.Exposure, "information")
	assert.InDelta(t, 0.03, d.OtherRate.Mid, 1e-9)
	assert.InDelta(t, 7400, d.Aggregates.MonthlyMid, 1e-6)
}
