//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"kilometers.ai/shop/internal/application/actions"
	"kilometers.ai/shop/internal/application/dispatch"
	"kilometers.ai/shop/internal/core/ports"
	httpports "kilometers.ai/shop/internal/core/ports/http"
	"kilometers.ai/shop/internal/core/state"
	"kilometers.ai/shop/internal/infrastructure/credentials"
	httpinfra "kilometers.ai/shop/internal/infrastructure/http"
)

// InitializeContainer creates a Container with all dependencies injected
func InitializeContainer(ctx context.Context, params Params) (*Container, func(), error) {
	wire.Build(
		wire.FieldsOf(new(Params), "Config", "Navigator"),
		provideLogger,

		// Session persistence
		provideCredentialStore,
		provideCookieJar,

		// Transport
		provideTransport,
		wire.Bind(new(httpports.Transport), new(*httpinfra.StdTransport)),

		// State
		provideStore,
		wire.Bind(new(ports.StateDispatcher), new(*state.Store)),

		// Dispatcher
		provideRefresher,
		wire.Bind(new(ports.Refresher), new(*credentials.HTTPRefresher)),
		provideMeter,
		provideDispatcher,
		wire.Bind(new(ports.APIDispatcher), new(*dispatch.Dispatcher)),

		actions.NewStorefront,
		wire.Struct(new(Container), "*"),
	)

	return nil, nil, nil
}
