//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"HealthTwin/pkg/config"
	"HealthTwin/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideGeminiClient,
		ProvideInsightsCache,

		// Repositories
		ProvideSampleStorage,
		ProvideSamplePublisher,

		// Use cases
		ProvideSampleProcessor,
		ProvidePipeline,
		ProvideSink,
		ProvideECGStream,
		ProvideEEGStream,
		ProvideMonitor,
		ProvideAnalyzer,
		ProvideAlertSource,
		ProvideHealthInsights,
		ProvideAlertFeed,
		ProvideKafkaSamplesHandler,

		// Transport
		ProvideRateLimiter,
		ProvideHub,
		ProvideHTTPHandlers,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
