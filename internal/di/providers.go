package di

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"LaborPulse/internal/domain/repository"
	"LaborPulse/internal/handler/api"
	"LaborPulse/internal/hub"
	internalrepo "LaborPulse/internal/repository"
	"LaborPulse/internal/service/labstats"
	"LaborPulse/internal/services/attribution"
	"LaborPulse/internal/services/nowcast"
	"LaborPulse/internal/usecase"
	"LaborPulse/pkg/cache"
	pkgch "LaborPulse/pkg/clickhouse"
	"LaborPulse/pkg/config"
	xhttp "LaborPulse/pkg/http"
	pkgkafka "LaborPulse/pkg/kafka"
	applogger "LaborPulse/pkg/logger"
	"LaborPulse/pkg/metrics"
	"LaborPulse/pkg/server"
)

// ProvideLogger creates the structured logger with a diagnostics collector.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AttachCollector(applogger.NewCollector(100))
	return l, nil
}

// ProvideModel loads the attribution and exposure tables.
func ProvideModel(cfg *config.Config) (*config.ModelConfig, error) {
	model, _, err := config.LoadModel(cfg.Nowcast.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return model, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClock provides the real wall clock.
func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

// ProvideJitter creates the tick jitter source.
func ProvideJitter(cfg *config.Config) nowcast.Jitter {
	return nowcast.NewUniformJitter(cfg.Nowcast.JitterSpread, time.Now().UnixNano())
}

// ProvideNowcastEngine creates the counter engine.
func ProvideNowcastEngine(model *config.ModelConfig, jitter nowcast.Jitter, clock clockwork.Clock) *nowcast.Engine {
	return nowcast.NewEngine(model, jitter, clock)
}

// ProvideAttributionEngine creates the roster scoring engine. Load warnings
// surface through attribution results and the diagnostics endpoint.
func ProvideAttributionEngine(model *config.ModelConfig) *attribution.Engine {
	eng, _ := attribution.New(model)
	return eng
}

// ProvideHTTPClient creates the provider-facing HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	timeout := cfg.Provider.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return xhttp.NewClient(xhttp.WithTimeout(timeout))
}

// ProvideSeriesProvider creates the labor statistics fetcher.
func ProvideSeriesProvider(cfg *config.Config, client *xhttp.Client, l *applogger.Logger) repository.SeriesProvider {
	opts := []labstats.Option{}
	if cfg.Provider.TrailingN > 0 {
		opts = append(opts, labstats.WithTrailingN(cfg.Provider.TrailingN))
	}
	return labstats.New(client, cfg.Provider.BaseURL, cfg.Provider.APIKey,
		cfg.Provider.Series, cfg.Provider.TotalSeries, l, opts...)
}

// ProvideCache creates the cache backend: Redis layered with memory when
// configured, plain memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.State.Store != "redis" {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideStateStore creates the counter persistence backend.
func ProvideStateStore(cfg *config.Config, c cache.Service) repository.StateStore {
	if cfg.State.Store == "redis" {
		return internalrepo.NewRedisStateStore(c)
	}
	return internalrepo.NewMemoryStateStore()
}

// ProvideSnapshotSink creates the refresh archive backend.
func ProvideSnapshotSink(cfg *config.Config, l *applogger.Logger) (repository.SnapshotSink, error) {
	switch cfg.Archive.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaSnapshotSink(producer, cfg.Kafka.Topic, l), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sink, err := internalrepo.NewCHSnapshotSink(ctx, client, l)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return sink, nil

	default:
		return internalrepo.NopSnapshotSink{}, nil
	}
}

// ProvideHub creates the broadcast hub.
func ProvideHub(engine *nowcast.Engine, m repository.Metrics, l *applogger.Logger, clock clockwork.Clock, cfg *config.Config) *hub.Hub {
	tick := cfg.Nowcast.TickInterval
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	writeTimeout := cfg.Hub.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return hub.New(engine, m, l, clock, tick, writeTimeout, cfg.Hub.MaxViewers)
}

// ProvideRefresher creates the fetch-recompute-persist cycle.
func ProvideRefresher(
	provider repository.SeriesProvider,
	engine *nowcast.Engine,
	store repository.StateStore,
	sink repository.SnapshotSink,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Refresher {
	return usecase.NewRefresher(provider, engine, store, sink, m, l, cfg.Provider.RefreshSpec)
}

// ProvideHandlers creates the HTTP and websocket handlers.
func ProvideHandlers(
	l *applogger.Logger,
	engine *nowcast.Engine,
	attrib *attribution.Engine,
	h *hub.Hub,
	model *config.ModelConfig,
	c cache.Service,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewCounterHandler(l, engine, attrib, h, model, c),
		api.NewWSHandler(l, h),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	model *config.ModelConfig,
	refresher *usecase.Refresher,
	h *hub.Hub,
	sink repository.SnapshotSink,
	handlers []xhttp.Handler,
) *server.App {
	return server.New(cfg, l, model, refresher, h, sink, handlers)
}
