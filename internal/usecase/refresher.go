package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	drepo "LaborPulse/internal/domain/repository"
	"LaborPulse/internal/services/nowcast"
	"LaborPulse/pkg/logger"
)

// Refresher drives the fetch-recompute-persist cycle. A cron schedule
// triggers each refresh; the counter keeps ticking on its previous rates
// while a refresh is in flight or failing.
type Refresher struct {
	provider drepo.SeriesProvider
	engine   *nowcast.Engine
	store    drepo.StateStore
	sink     drepo.SnapshotSink
	metrics  drepo.Metrics
	log      *logger.Logger

	spec string
	cron *cron.Cron
}

// NewRefresher creates a refresher with the given cron spec (e.g. "@every 1h").
func NewRefresher(provider drepo.SeriesProvider, engine *nowcast.Engine, store drepo.StateStore, sink drepo.SnapshotSink, metrics drepo.Metrics, log *logger.Logger, spec string) *Refresher {
	return &Refresher{
		provider: provider,
		engine:   engine,
		store:    store,
		sink:     sink,
		metrics:  metrics,
		log:      log,
		spec:     spec,
	}
}

// Start restores persisted state, runs one immediate refresh so the counter
// has rates before the first tick, then schedules the periodic cycle.
func (r *Refresher) Start(ctx context.Context) error {
	if saved, err := r.store.Load(ctx); err != nil {
		r.log.Warn("state restore failed, starting from seed", logger.Error(err))
	} else if saved != nil {
		r.engine.Restore(*saved)
		r.log.Info("state restored", logger.Int64("counter", saved.IntegerValue))
	}

	r.RefreshOnce(ctx)

	c := cron.New()
	if _, err := c.AddFunc(r.spec, func() { r.RefreshOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", r.spec, err)
	}
	c.Start()
	r.cron = c

	r.log.Info("refresher started", logger.String("spec", r.spec))
	return nil
}

// RefreshOnce runs a single fetch-recompute-persist cycle. Failures degrade:
// the engine keeps its previous rates and the error is recorded, never fatal.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	start := time.Now()

	batch, err := r.provider.Fetch(ctx, r.engine.Readings())
	if err != nil {
		r.metrics.RecordRefresh("error")
		r.metrics.RecordError("fetch")
		r.log.Error("refresh fetch failed", logger.Error(err))
		return
	}

	r.engine.Refresh(batch)
	r.metrics.RecordLatency("refresh", time.Since(start).Seconds())

	if !r.engine.Fresh() {
		r.metrics.RecordRefresh("stale")
		r.log.Warn("refresh produced no usable total, keeping previous rates",
			logger.String("total_err", batch.TotalErr))
		return
	}
	r.metrics.RecordRefresh("ok")

	if err := r.store.Save(ctx, r.engine.State()); err != nil {
		r.metrics.RecordError("persist")
		r.log.Warn("state persist failed", logger.Error(err))
	}

	if r.sink != nil {
		if err := r.sink.Record(ctx, r.engine.Snapshot(), r.engine.Aggregates()); err != nil {
			r.metrics.RecordError("archive")
			r.log.Warn("snapshot archive failed", logger.Error(err))
		}
	}

	view := r.engine.Snapshot()
	r.log.Info("refresh complete",
		logger.String("as_of", view.DataAsOf),
		logger.Float64("per_day", view.PerDay),
		logger.Float64("attributed_rate", view.AttributedRate))
}

// Persist saves the current state. Called by the hub's periodic persist loop
// so a crash loses at most one interval of counter progress.
func (r *Refresher) Persist(ctx context.Context) error {
	return r.store.Save(ctx, r.engine.State())
}

// Stop halts the cron schedule and waits for a running job.
func (r *Refresher) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}
