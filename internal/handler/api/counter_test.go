package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaborPulse/internal/domain/models"
	"LaborPulse/internal/hub"
	"LaborPulse/internal/services/attribution"
	"LaborPulse/internal/services/nowcast"
	"LaborPulse/pkg/cache"
	"LaborPulse/pkg/config"
	xhttp "LaborPulse/pkg/http"
	"LaborPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordCounter(int64, float64)  {}
func (nopMetrics) RecordViewers(int)             {}
func (nopMetrics) RecordTick()                   {}
func (nopMetrics) RecordRefresh(string)          {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}

func testModel() *config.ModelConfig {
	return &config.ModelConfig{
		Name:       "test-model",
		Epoch:      "2025-01-01",
		Inflection: "2022-11-30",
		Categories: []config.ModelCategory{
			{ID: "coding", Name: "Coding tools", Weight: 1.0},
		},
		Companies: []config.ModelCompany{
			{Name: "alpha", Category: "coding", RelativeScale: 100, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
			{Name: "beta", Category: "coding", RelativeScale: 20, LaunchDate: "2024-01-01", DisplacementType: "augmentation", OperationalFactor: 0.8, MarketTier: "prosumer"},
		},
		Exposure: map[string]config.ExposureRate{
			"information": {Low: 0.05, Mid: 0.12, High: 0.22},
		},
		OtherRate:  config.ExposureRate{Low: 0.01, Mid: 0.03, High: 0.06},
		DataSource: "test provider",
		Limits:     []string{"estimates only"},
	}
}

func testHandler(t *testing.T) (*CounterHandler, *echo.Echo) {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	log.AttachCollector(logger.NewCollector(50))

	model := testModel()
	eng := nowcast.NewEngine(model, nowcast.Fixed(1), clockwork.NewRealClock())

	total := 100000.0
	val := 20000.0
	eng.Refresh(&models.RefreshBatch{
		Readings: []models.SeriesReading{
			{Category: "information", SeriesID: "s1", LatestValue: &val, AsOf: "2026-06"},
		},
		Total: &total,
		AsOf:  "2026-06",
	})

	attrib, _ := attribution.New(model)
	h := hub.New(eng, nopMetrics{}, log, clockwork.NewRealClock(), 50*time.Millisecond, time.Second, 10)
	t.Cleanup(h.Stop)

	handler := NewCounterHandler(log, eng, attrib, h, model, cache.NewMemoryCache())

	e := echo.New()
	handler.RegisterRoutes(e)
	return handler, e
}

func doGet(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body xhttp.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCounterEndpoint(t *testing.T) {
	_, e := testHandler(t)
	rec, body := doGet(t, e, "/api/counter")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, body.Status)

	raw, _ := json.Marshal(body.Data)
	var view models.CounterView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Greater(t, view.Counter, int64(0))
	assert.True(t, view.Fresh)
	assert.Equal(t, "test-model", view.Model)
}

func TestAttributionEndpoint(t *testing.T) {
	_, e := testHandler(t)
	rec, body := doGet(t, e, "/api/attribution?total=10000")

	assert.Equal(t, http.StatusOK, rec.Code)

	raw, _ := json.Marshal(body.Data)
	var res models.AttributionResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, int64(10000), res.Total)
	require.Len(t, res.Companies, 2)
	assert.Equal(t, "alpha", res.Companies[0].Name)
}

func TestAttributionTopTruncates(t *testing.T) {
	_, e := testHandler(t)
	_, body := doGet(t, e, "/api/attribution?total=10000&top=1")

	raw, _ := json.Marshal(body.Data)
	var res models.AttributionResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Len(t, res.Companies, 1)
}

func TestAttributionDefaultsToLiveCounter(t *testing.T) {
	_, e := testHandler(t)
	_, body := doGet(t, e, "/api/attribution")

	raw, _ := json.Marshal(body.Data)
	var res models.AttributionResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Greater(t, res.Total, int64(0))
}

func TestAttributionRejectsNegativeTotal(t *testing.T) {
	_, e := testHandler(t)
	rec, body := doGet(t, e, "/api/attribution?total=-5")

	assert.Equal(t, http.StatusOK, rec.Code) // envelope carries the status
	assert.Equal(t, http.StatusBadRequest, body.Status)
}

func TestMethodologyEndpoint(t *testing.T) {
	_, e := testHandler(t)
	_, body := doGet(t, e, "/api/methodology")

	raw, _ := json.Marshal(body.Data)
	var m models.Methodology
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "test-model", m.Model)
	assert.Equal(t, "2025-01-01", m.Epoch)
	require.Len(t, m.Categories, 1)
	assert.Equal(t, 2, m.Categories[0].Companies)
	assert.Equal(t, 1.0, m.TypeMultipliers["direct"])
	assert.Equal(t, 0.15, m.TierMultipliers["consumer"])
	assert.Equal(t, []string{"estimates only"}, m.Limits)
}

func TestDiagnosticsEndpoint(t *testing.T) {
	_, e := testHandler(t)
	_, body := doGet(t, e, "/api/diagnostics")

	raw, _ := json.Marshal(body.Data)
	var d models.Diagnostics
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Len(t, d.Readings, 1)
	assert.Greater(t, d.Aggregates.MonthlyMid, 0.0)
	assert.Contains(t, d.Extra, "viewers")
}

func TestHealthEndpoint(t *testing.T) {
	_, e := testHandler(t)
	rec, body := doGet(t, e, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	raw, _ := json.Marshal(body.Data)
	var h models.Health
	require.NoError(t, json.Unmarshal(raw, &h))
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Fresh)
	assert.Positive(t, h.Counter)
}
