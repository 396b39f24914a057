package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaborPulse/internal/domain/models"
	"LaborPulse/internal/services/nowcast"
	"LaborPulse/pkg/config"
	"LaborPulse/pkg/logger"
)

type stubProvider struct {
	mu       sync.Mutex
	batch    *models.RefreshBatch
	err      error
	previous []models.SeriesReading
	calls    int
}

func (p *stubProvider) Fetch(_ context.Context, previous []models.SeriesReading) (*models.RefreshBatch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.previous = previous
	return p.batch, p.err
}

type memStore struct {
	mu    sync.Mutex
	state *models.NowcastState
	saves int
}

func (s *memStore) Save(_ context.Context, state models.NowcastState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	s.saves++
	return nil
}

func (s *memStore) Load(_ context.Context) (*models.NowcastState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

type nopMetrics struct {
	mu       sync.Mutex
	refreshs map[string]int
	errs     map[string]int
}

func newNopMetrics() *nopMetrics {
	return &nopMetrics{refreshs: map[string]int{}, errs: map[string]int{}}
}

func (m *nopMetrics) RecordCounter(int64, float64) {}
func (m *nopMetrics) RecordViewers(int)            {}
func (m *nopMetrics) RecordTick()                  {}
func (m *nopMetrics) RecordRefresh(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshs[result]++
}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}
func (m *nopMetrics) RecordLatency(string, float64) {}

type recordingSink struct {
	mu      sync.Mutex
	records int
	err     error
}

func (s *recordingSink) Record(context.Context, models.CounterView, models.Aggregates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records++
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func refresherModel() *config.ModelConfig {
	return &config.ModelConfig{
		Name:  "test-model",
		Epoch: "2025-01-01",
		Exposure: map[string]config.ExposureRate{
			"information": {Low: 0.05, Mid: 0.12, High: 0.22},
		},
		OtherRate: config.ExposureRate{Low: 0.01, Mid: 0.03, High: 0.06},
	}
}

func refresherEngine() *nowcast.Engine {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	return nowcast.NewEngine(refresherModel(), nowcast.Fixed(1), clock)
}

func refresherLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func fv(v float64) *float64 { return &v }

func goodBatch() *models.RefreshBatch {
	return &models.RefreshBatch{
		Readings: []models.SeriesReading{
			{Category: "information", SeriesID: "s1", LatestValue: fv(20000), AsOf: "2026-06"},
		},
		Total: fv(100000),
		AsOf:  "2026-06",
	}
}

func TestRefreshOnceHappyPath(t *testing.T) {
	provider := &stubProvider{batch: goodBatch()}
	store := &memStore{}
	sink := &recordingSink{}
	metrics := newNopMetrics()
	eng := refresherEngine()

	r := NewRefresher(provider, eng, store, sink, metrics, refresherLogger(t), "@every 1h")
	r.RefreshOnce(context.Background())

	assert.True(t, eng.Fresh())
	assert.Equal(t, 1, metrics.refreshs["ok"])
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, sink.records)
	require.NotNil(t, store.state)
	assert.Greater(t, store.state.PerDayMid, 0.0)
}

func TestRefreshOnceFetchError(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	store := &memStore{}
	metrics := newNopMetrics()
	eng := refresherEngine()

	r := NewRefresher(provider, eng, store, nil, metrics, refresherLogger(t), "@every 1h")
	r.RefreshOnce(context.Background())

	assert.Equal(t, 1, metrics.refreshs["error"])
	assert.Equal(t, 1, metrics.errs["fetch"])
	assert.Equal(t, 0, store.saves)
	assert.False(t, eng.Fresh())
}

func TestRefreshOnceStaleTotalSkipsPersist(t *testing.T) {
	good := &stubProvider{batch: goodBatch()}
	store := &memStore{}
	metrics := newNopMetrics()
	eng := refresherEngine()

	r := NewRefresher(good, eng, store, nil, metrics, refresherLogger(t), "@every 1h")
	r.RefreshOnce(context.Background())
	require.Equal(t, 1, store.saves)

	bad := goodBatch()
	bad.Total = nil
	bad.TotalErr = "timeout"
	good.batch = bad
	r.RefreshOnce(context.Background())

	// Degraded cycle: no new persist, previous rates retained.
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, metrics.refreshs["stale"])
	assert.False(t, eng.Fresh())
	assert.Greater(t, eng.State().PerDayMid, 0.0)
}

func TestRefreshOncePassesPreviousReadings(t *testing.T) {
	provider := &stubProvider{batch: goodBatch()}
	eng := refresherEngine()

	r := NewRefresher(provider, eng, &memStore{}, nil, newNopMetrics(), refresherLogger(t), "@every 1h")
	r.RefreshOnce(context.Background())
	r.RefreshOnce(context.Background())

	// Second fetch receives the first cycle's readings for last-good carry.
	require.Len(t, provider.previous, 1)
	assert.Equal(t, "information", provider.previous[0].Category)
}

func TestStartRestoresPersistedState(t *testing.T) {
	store := &memStore{state: &models.NowcastState{IntegerValue: 99999999}}
	provider := &stubProvider{batch: goodBatch()}
	eng := refresherEngine()

	r := NewRefresher(provider, eng, store, nil, newNopMetrics(), refresherLogger(t), "@every 1h")
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	// Restored counter beats the epoch seed.
	assert.GreaterOrEqual(t, eng.State().IntegerValue, int64(99999999))
	assert.GreaterOrEqual(t, provider.calls, 1)
}

func TestStartRejectsBadCronSpec(t *testing.T) {
	r := NewRefresher(&stubProvider{batch: goodBatch()}, refresherEngine(), &memStore{}, nil, newNopMetrics(), refresherLogger(t), "not a spec")
	assert.Error(t, r.Start(context.Background()))
}

func TestSinkErrorDoesNotFailCycle(t *testing.T) {
	provider := &stubProvider{batch: goodBatch()}
	store := &memStore{}
	sink := &recordingSink{err: errors.New("archive down")}
	metrics := newNopMetrics()

	r := NewRefresher(provider, refresherEngine(), store, sink, metrics, refresherLogger(t), "@every 1h")
	r.RefreshOnce(context.Background())

	assert.Equal(t, 1, metrics.refreshs["ok"])
	assert.Equal(t, 1, metrics.errs["archive"])
	assert.Equal(t, 1, store.saves)
}
