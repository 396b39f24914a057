package repository

import (
	"context"

	"LaborPulse/internal/domain/models"
)

// SeriesProvider fetches the latest readings for all tracked series. One
// upstream request per series; individual failures are reported per reading,
// never as a batch error.
type SeriesProvider interface {
	Fetch(ctx context.Context, previous []models.SeriesReading) (*models.RefreshBatch, error)
}

// StateStore persists NowcastState so the counter survives restarts. Durable
// (Redis) and ephemeral (in-memory) implementations share this contract.
type StateStore interface {
	Save(ctx context.Context, state models.NowcastState) error
	Load(ctx context.Context) (*models.NowcastState, error)
}

// SnapshotSink receives the recomputed aggregates after each refresh, for
// audit history. Implementations: ClickHouse archive, Kafka publisher, none.
type SnapshotSink interface {
	Record(ctx context.Context, view models.CounterView, agg models.Aggregates) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordCounter(value int64, perSecond float64)
	RecordViewers(n int)
	RecordTick()
	RecordRefresh(result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
