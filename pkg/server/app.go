package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	drepo "LaborPulse/internal/domain/repository"
	"LaborPulse/internal/hub"
	"LaborPulse/internal/usecase"
	"LaborPulse/pkg/config"
	xhttp "LaborPulse/pkg/http"
	applogger "LaborPulse/pkg/logger"
)

// routes fans RegisterRoutes out to every handler.
type routes []xhttp.Handler

func (r routes) RegisterRoutes(e *echo.Echo) {
	for _, h := range r {
		h.RegisterRoutes(e)
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	model     *config.ModelConfig
	refresher *usecase.Refresher
	hub       *hub.Hub
	sink      drepo.SnapshotSink
	handlers  routes

	httpServer  *xhttp.Server
	persistDone chan struct{}
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	model *config.ModelConfig,
	refresher *usecase.Refresher,
	h *hub.Hub,
	sink drepo.SnapshotSink,
	handlers []xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		model:       model,
		refresher:   refresher,
		hub:         h,
		sink:        sink,
		handlers:    routes(handlers),
		persistDone: make(chan struct{}),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, w := range a.model.Warnings() {
		a.log.Warn("model warning", applogger.String("warning", w))
	}

	// Restore + first refresh + cron schedule. The hub is already ticking;
	// until the first refresh lands it ticks at rate zero.
	if err := a.refresher.Start(ctx); err != nil {
		return err
	}

	go a.persistLoop(ctx)

	a.httpServer = xhttp.NewServer(a.handlers,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}

	a.log.Info("laborpulse started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("model", a.model.Name))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// persistLoop saves counter state periodically so a crash loses at most one
// interval of progress.
func (a *App) persistLoop(ctx context.Context) {
	interval := a.cfg.State.PersistInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.persistDone:
			return
		case <-ticker.C:
			if err := a.refresher.Persist(ctx); err != nil {
				a.log.Warn("periodic persist failed", applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	close(a.persistDone)

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.hub.Stop()
	a.refresher.Stop()

	if err := a.refresher.Persist(shutdownCtx); err != nil {
		a.log.Warn("final persist failed", applogger.Error(err))
	}

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("snapshot sink close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
