package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"LaborPulse/internal/domain/models"
	"LaborPulse/internal/hub"
	"LaborPulse/internal/services/attribution"
	"LaborPulse/internal/services/nowcast"
	"LaborPulse/pkg/cache"
	"LaborPulse/pkg/config"
	xhttp "LaborPulse/pkg/http"
	xlogger "LaborPulse/pkg/logger"
)

const attributionCacheTTL = 30 * time.Second

// CounterHandler serves the query surface: the live counter snapshot, the
// roster breakdown, the methodology document and the diagnostics dump.
type CounterHandler struct {
	logger      *xlogger.Logger
	engine      *nowcast.Engine
	attribution *attribution.Engine
	hub         *hub.Hub
	model       *config.ModelConfig
	cache       cache.Service
	methodology models.Methodology
}

func NewCounterHandler(logger *xlogger.Logger, engine *nowcast.Engine, attrib *attribution.Engine, h *hub.Hub, model *config.ModelConfig, cacheSvc cache.Service) *CounterHandler {
	return &CounterHandler{
		logger:      logger,
		engine:      engine,
		attribution: attrib,
		hub:         h,
		model:       model,
		cache:       cacheSvc,
		methodology: buildMethodology(model),
	}
}

func (h *CounterHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/counter", h.Counter)
	g.GET("/attribution", h.Attribution)
	g.GET("/methodology", h.Methodology)
	g.GET("/diagnostics", h.Diagnostics)

	e.GET("/healthz", h.Health)
}

// Counter returns the current snapshot, the same payload the websocket pushes.
func (h *CounterHandler) Counter(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Snapshot())
}

// Attribution distributes a total across the roster. Without an explicit
// total the live counter value is used. Results are cached briefly: the
// breakdown for a given total is deterministic within the cache window.
func (h *CounterHandler) Attribution(c echo.Context) error {
	req := &models.AttributionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	total := req.Total
	if total == 0 {
		total = h.engine.Snapshot().Counter
	}

	ctx := c.Request().Context()
	key := cache.GenerateKeyWithParams("attribution", total, req.Top)

	if h.cache != nil {
		var cached models.AttributionResult
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	res := h.attribution.Attribute(total, time.Now())
	if req.Top > 0 && req.Top < len(res.Companies) {
		res.Companies = res.Companies[:req.Top]
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, res, attributionCacheTTL); err != nil {
			h.logger.Warn("attribution cache set failed", xlogger.Error(err))
		}
	}

	return xhttp.SuccessResponse(c, res)
}

// Methodology returns the static model description.
func (h *CounterHandler) Methodology(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.methodology)
}

// Diagnostics returns the raw audit dump plus recent warn/error log entries.
func (h *CounterHandler) Diagnostics(c echo.Context) error {
	d := h.engine.Diagnostics()
	if col := h.logger.Collector(); col != nil {
		d.RecentLogs = col.Recent()
	}
	d.Extra = map[string]interface{}{
		"viewers": h.hub.ViewerCount(),
	}
	return xhttp.SuccessResponse(c, d)
}

// Health reports liveness. Stale data degrades the payload, not the status:
// the counter keeps ticking on its previous rates.
func (h *CounterHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.Health{
		Status:  "ok",
		Counter: h.engine.Snapshot().Counter,
		Fresh:   h.engine.Fresh(),
		Viewers: h.hub.ViewerCount(),
	})
}

func buildMethodology(model *config.ModelConfig) models.Methodology {
	perCategory := make(map[string]int, len(model.Categories))
	for _, co := range model.Companies {
		perCategory[co.Category]++
	}

	cats := make([]models.MethodologyCategory, 0, len(model.Categories))
	for _, c := range model.Categories {
		cats = append(cats, models.MethodologyCategory{
			ID:        c.ID,
			Name:      c.Name,
			Weight:    c.Weight,
			Companies: perCategory[c.ID],
		})
	}

	exposure := make(map[string]models.RateTriple, len(model.Exposure))
	for id, r := range model.Exposure {
		exposure[id] = models.RateTriple{Low: r.Low, Mid: r.Mid, High: r.High}
	}

	return models.Methodology{
		Model:           model.Name,
		Epoch:           model.Epoch,
		Inflection:      model.Inflection,
		DataSource:      model.DataSource,
		Categories:      cats,
		TypeMultipliers: attribution.TypeMultipliers(),
		TierMultipliers: attribution.TierMultipliers(),
		Exposure:        exposure,
		OtherRate:       models.RateTriple{Low: model.OtherRate.Low, Mid: model.OtherRate.Mid, High: model.OtherRate.High},
		Limits:          model.Limits,
	}
}
