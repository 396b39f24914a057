package repository

import (
	"context"
	"fmt"
	"time"

	"LaborPulse/internal/domain/models"
	"LaborPulse/pkg/kafka"
	applogger "LaborPulse/pkg/logger"
)

// snapshotRecord is the archived form of one refresh outcome.
type snapshotRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	DataAsOf       string    `json:"data_as_of"`
	Counter        int64     `json:"counter"`
	PerSecond      float64   `json:"per_second"`
	PerDay         float64   `json:"per_day"`
	PerDayLow      float64   `json:"per_day_low"`
	PerDayHigh     float64   `json:"per_day_high"`
	AttributedRate float64   `json:"attributed_rate"`
	MonthlyLow     float64   `json:"monthly_low"`
	MonthlyMid     float64   `json:"monthly_mid"`
	MonthlyHigh    float64   `json:"monthly_high"`
	Covered        float64   `json:"covered"`
	Residual       float64   `json:"residual"`
	Model          string    `json:"model"`
}

func newSnapshotRecord(view models.CounterView, agg models.Aggregates) snapshotRecord {
	return snapshotRecord{
		Timestamp:      time.Now().UTC(),
		DataAsOf:       view.DataAsOf,
		Counter:        view.Counter,
		PerSecond:      view.PerSecond,
		PerDay:         view.PerDay,
		PerDayLow:      view.PerDayLow,
		PerDayHigh:     view.PerDayHigh,
		AttributedRate: view.AttributedRate,
		MonthlyLow:     agg.MonthlyLow,
		MonthlyMid:     agg.MonthlyMid,
		MonthlyHigh:    agg.MonthlyHigh,
		Covered:        agg.Covered,
		Residual:       agg.Residual,
		Model:          view.Model,
	}
}

// KafkaSnapshotSink publishes each refresh outcome to a topic, keyed by the
// data period so downstream consumers can compact per month.
type KafkaSnapshotSink struct {
	producer *kafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaSnapshotSink(producer *kafka.Producer, topic string, l *applogger.Logger) *KafkaSnapshotSink {
	return &KafkaSnapshotSink{producer: producer, topic: topic, l: l}
}

func (s *KafkaSnapshotSink) Record(ctx context.Context, view models.CounterView, agg models.Aggregates) error {
	rec := newSnapshotRecord(view, agg)
	if err := s.producer.Publish(ctx, s.topic, []byte(rec.DataAsOf), rec); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	s.l.Debug("snapshot published",
		applogger.String("topic", s.topic),
		applogger.String("as_of", rec.DataAsOf))
	return nil
}

func (s *KafkaSnapshotSink) Close() error {
	return s.producer.Close()
}

// NopSnapshotSink discards snapshots. Used when no archive backend is
// configured.
type NopSnapshotSink struct{}

func (NopSnapshotSink) Record(context.Context, models.CounterView, models.Aggregates) error {
	return nil
}

func (NopSnapshotSink) Close() error { return nil }
