//go:build wireinject
// +build wireinject

package di

import (
	"EngDB/pkg/config"
	"EngDB/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// MAST access
		ProvideSession,
		ProvideMastClient,
		ProvideCacheStore,
		ProvideRequester,

		// Use cases
		ProvideParser,
		ProvideEngineeringDB,

		// Viewer
		ProvideRenderer,
		ProvideHandler,
		ProvideLimiter,

		// Application
		ProvideApp,
	)
	return nil, nil, nil
}
