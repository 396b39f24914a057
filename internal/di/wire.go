//go:build wireinject
// +build wireinject

package di

import (
	"LaborPulse/pkg/config"
	"LaborPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Model tables
		ProvideModel,

		// Engines
		ProvideJitter,
		ProvideNowcastEngine,
		ProvideAttributionEngine,

		// Infrastructure
		ProvideHTTPClient,
		ProvideCache,
		ProvideSeriesProvider,
		ProvideStateStore,
		ProvideSnapshotSink,

		// Hub + use cases
		ProvideHub,
		ProvideRefresher,

		// HTTP surface
		ProvideHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
