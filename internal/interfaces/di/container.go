package di

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"kilometers.ai/shop/internal/application/actions"
	"kilometers.ai/shop/internal/application/dispatch"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	httpdomain "kilometers.ai/shop/internal/core/domain/http"
	"kilometers.ai/shop/internal/core/ports"
	httpports "kilometers.ai/shop/internal/core/ports/http"
	"kilometers.ai/shop/internal/core/state"
	"kilometers.ai/shop/internal/infrastructure/credentials"
	httpinfra "kilometers.ai/shop/internal/infrastructure/http"
	"kilometers.ai/shop/internal/infrastructure/logging"
	"kilometers.ai/shop/internal/interfaces/cli"
)

// Params are the inputs of one container
type Params struct {
	Config    configdomain.Config
	Navigator ports.Navigator
}

// Container holds all application dependencies
type Container struct {
	Config      configdomain.Config
	Logger      hclog.Logger
	Credentials ports.CredentialStore
	Jar         *credentials.FileCookieJar
	Transport   *httpinfra.StdTransport
	State       *state.Store
	Dispatcher  *dispatch.Dispatcher
	Storefront  *actions.Storefront
}

// Open builds the container for the CLI. The returned services own the
// container's resources until Close.
func Open(ctx context.Context, cfg configdomain.Config, nav ports.Navigator) (*cli.Services, error) {
	c, cleanup, err := InitializeContainer(ctx, Params{Config: cfg, Navigator: nav})
	if err != nil {
		return nil, err
	}

	return &cli.Services{
		Config:     c.Config,
		Logger:     c.Logger,
		Storefront: c.Storefront,
		State:      c.State,
		Jar:        c.Jar,
		Close:      cleanup,
	}, nil
}

func provideLogger(cfg configdomain.Config) hclog.Logger {
	return logging.New(logging.Options{Level: cfg.EffectiveLogLevel()})
}

// provideCredentialStore picks the backend named by credential_store
func provideCredentialStore(ctx context.Context, cfg configdomain.Config, logger hclog.Logger) (ports.CredentialStore, func(), error) {
	switch cfg.CredentialStore {
	case "memory":
		return credentials.NewMemoryStore(), func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
		return credentials.NewRedisStore(client, cfg.Profile, 0), cleanup, nil

	default:
		store, err := credentials.NewSecureFileStore(cfg.ConfigDir, cfg.Profile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open credential file: %w", err)
		}
		return store, func() {}, nil
	}
}

func provideCookieJar(cfg configdomain.Config, logger hclog.Logger) (*credentials.FileCookieJar, error) {
	return credentials.NewFileCookieJar(cfg.ConfigDir, cfg.Profile, logging.Component(logger, "cookies"))
}

func provideTransport(cfg configdomain.Config, jar *credentials.FileCookieJar, logger hclog.Logger) (*httpinfra.StdTransport, error) {
	endpoint := httpdomain.BackendEndpoint{
		BaseURL:   cfg.APIURL,
		UserAgent: "shop-cli/" + cli.Version,
	}
	return httpinfra.NewStdTransport(endpoint, cfg.Timeout, jar, logging.Component(logger, "transport"))
}

// provideStore hydrates the state from the credential store. An unreadable
// credential starts the session logged out.
func provideStore(ctx context.Context, creds ports.CredentialStore, logger hclog.Logger) *state.Store {
	store := state.NewStore(creds, logging.Component(logger, "state"))
	if err := store.Hydrate(ctx); err != nil {
		logger.Warn("stored credential could not be read, continuing logged out", "error", err)
	}
	return store
}

func provideRefresher(cfg configdomain.Config, transport httpports.Transport, logger hclog.Logger) *credentials.HTTPRefresher {
	return credentials.NewHTTPRefresher(transport, cfg.RefreshPath, logging.Component(logger, "refresh"))
}

func provideMeter() metric.Meter {
	return otel.Meter("kilometers.ai/shop/dispatch")
}

func provideDispatcher(
	cfg configdomain.Config,
	transport httpports.Transport,
	creds ports.CredentialStore,
	store ports.StateDispatcher,
	nav ports.Navigator,
	refresher ports.Refresher,
	meter metric.Meter,
	logger hclog.Logger,
) (*dispatch.Dispatcher, error) {
	mode, err := dispatch.ParseVerbMode(cfg.VerbMode)
	if err != nil {
		return nil, err
	}
	return dispatch.NewDispatcher(transport, creds, store, nav, refresher, dispatch.Options{
		LoginPath: cfg.LoginPath,
		VerbMode:  mode,
		Logger:    logging.Component(logger, "dispatch"),
		Meter:     meter,
	})
}
