package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"LaborPulse/internal/domain/models"
	pkgch "LaborPulse/pkg/clickhouse"
	applogger "LaborPulse/pkg/logger"
)

var snapshotSchema = []string{
	`CREATE DATABASE IF NOT EXISTS laborpulse`,
	`CREATE TABLE IF NOT EXISTS laborpulse.snapshots (
        ts              DateTime64(3) CODEC(Delta, ZSTD),
        data_as_of      String,
        counter         Int64,
        per_second      Float64,
        per_day         Float64,
        per_day_low     Float64,
        per_day_high    Float64,
        attributed_rate Float64,
        monthly_low     Float64,
        monthly_mid     Float64,
        monthly_high    Float64,
        covered         Float64,
        residual        Float64,
        model           String
    ) ENGINE = MergeTree
    ORDER BY ts
    TTL toDateTime(ts) + INTERVAL 2 YEAR`,
}

// CHSnapshotSink archives each refresh outcome into ClickHouse.
type CHSnapshotSink struct {
	db *sql.DB
	ch *pkgch.Client
	l  *applogger.Logger
}

func NewCHSnapshotSink(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHSnapshotSink, error) {
	if err := ch.InitSchema(ctx, snapshotSchema); err != nil {
		return nil, fmt.Errorf("snapshot schema: %w", err)
	}
	return &CHSnapshotSink{db: ch.DB(), ch: ch, l: l}, nil
}

func (s *CHSnapshotSink) Record(ctx context.Context, view models.CounterView, agg models.Aggregates) error {
	start := time.Now()
	rec := newSnapshotRecord(view, agg)

	const q = `
        INSERT INTO laborpulse.snapshots
            (ts, data_as_of, counter, per_second, per_day, per_day_low, per_day_high,
             attributed_rate, monthly_low, monthly_mid, monthly_high, covered, residual, model)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp, rec.DataAsOf, rec.Counter, rec.PerSecond, rec.PerDay,
		rec.PerDayLow, rec.PerDayHigh, rec.AttributedRate,
		rec.MonthlyLow, rec.MonthlyMid, rec.MonthlyHigh,
		rec.Covered, rec.Residual, rec.Model)
	if err != nil {
		s.l.Error("clickhouse snapshot insert error", applogger.Error(err))
		return fmt.Errorf("insert snapshot: %w", err)
	}

	s.l.Debug("clickhouse snapshot ok",
		applogger.String("as_of", rec.DataAsOf),
		applogger.Duration("duration_ms", time.Since(start)))
	return nil
}

func (s *CHSnapshotSink) Close() error {
	return s.ch.Close()
}
