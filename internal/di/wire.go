//go:build wireinject
// +build wireinject

package di

import (
	"CoinPulse/pkg/config"
	"CoinPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideBudget,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideSignalStore,
		ProvideAlertPublisher,

		// Data providers
		ProvideMarketProvider,
		ProvideSentimentProvider,
		ProvideWhaleProvider,
		ProvideContextProvider,
		ProvideWhaleStream,

		// Core pipeline
		ProvideEngine,
		ProvideQueue,
		ProvideComputer,
		ProvideCoalescer,
		ProvidePool,
		ProvideScheduler,

		// HTTP surface
		ProvideSignalsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
