package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"kilometers.ai/shop/internal/core/domain"
	httpdomain "kilometers.ai/shop/internal/core/domain/http"
	"kilometers.ai/shop/internal/core/ports"
	httpports "kilometers.ai/shop/internal/core/ports/http"
	httpinfra "kilometers.ai/shop/internal/infrastructure/http"
)

// DefaultLoginPath is where the user is sent when the session is lost
const DefaultLoginPath = "/auth/login"

// Options tunes a Dispatcher. The zero value is usable.
type Options struct {
	LoginPath string
	VerbMode  VerbMode
	Logger    hclog.Logger
	Meter     metric.Meter
}

// Dispatcher issues authenticated API calls and turns their results into
// state actions. Expired access tokens are refreshed once, shared between
// concurrent calls, and the call is retried with the new token.
type Dispatcher struct {
	transport httpports.Transport
	creds     ports.CredentialStore
	state     ports.StateDispatcher
	navigator ports.Navigator
	refresher ports.Refresher

	loginPath string
	verbMode  VerbMode
	logger    hclog.Logger
	metrics   *instruments

	refreshGroup singleflight.Group
}

func NewDispatcher(
	transport httpports.Transport,
	creds ports.CredentialStore,
	state ports.StateDispatcher,
	navigator ports.Navigator,
	refresher ports.Refresher,
	opts Options,
) (*Dispatcher, error) {
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	if opts.VerbMode == "" {
		opts.VerbMode = VerbModeDistinct
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	metrics, err := newInstruments(opts.Meter)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		transport: transport,
		creds:     creds,
		state:     state,
		navigator: navigator,
		refresher: refresher,
		loginPath: opts.LoginPath,
		verbMode:  opts.VerbMode,
		logger:    opts.Logger,
		metrics:   metrics,
	}, nil
}

// Dispatch performs req and feeds the response data through mappers in
// order, dispatching each resulting action. It never returns an error:
// failures are logged, and a session that cannot be refreshed ends in a
// logout and a forced navigation to the login route.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.RequestDescriptor, mappers ...domain.Mapper) {
	start := time.Now()
	outcome := d.attempt(ctx, req, mappers, "")
	d.metrics.recordDispatch(ctx, outcome, time.Since(start))
}

// Go runs Dispatch on its own goroutine. The returned channel is closed
// once the call has reached its outcome.
func (d *Dispatcher) Go(ctx context.Context, req domain.RequestDescriptor, mappers ...domain.Mapper) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Dispatch(ctx, req, mappers...)
	}()
	return done
}

// attempt is one trip to the backend. refreshed is empty on the first
// attempt and holds the new token on the single retry after a refresh.
func (d *Dispatcher) attempt(ctx context.Context, req domain.RequestDescriptor, mappers []domain.Mapper, refreshed domain.Credential) Outcome {
	log := d.logger.With("call", req.String())
	retried := !refreshed.IsZero()

	sent := refreshed
	if !retried {
		var err error
		if sent, err = d.creds.Get(ctx); err != nil {
			log.Warn("failed to read credential, calling without one", "error", err)
			sent = ""
		}
	}

	data, err := d.transport.Send(ctx, d.requestContext(req, sent))
	if err == nil {
		d.applyMappers(log, data, mappers)
		if retried {
			return OutcomeRetried
		}
		return OutcomeSuccess
	}

	if !domain.IsUnauthorized(err) {
		log.Error("request failed", "error", err)
		return OutcomeFailed
	}

	if retried {
		log.Warn("request rejected after token refresh")
		d.forceLogout(ctx)
		return OutcomeLoggedOut
	}

	log.Debug("access token rejected, refreshing")
	cred, ok := d.refresh(ctx, sent)
	if !ok {
		d.forceLogout(ctx)
		return OutcomeLoggedOut
	}
	return d.attempt(ctx, req, mappers, cred)
}

func (d *Dispatcher) requestContext(req domain.RequestDescriptor, cred domain.Credential) httpdomain.RequestContext {
	method, modeHeaders := d.verbMode.method(req.Verb())

	var authHeaders map[string]string
	if !cred.IsZero() {
		authHeaders = map[string]string{"Authorization": cred.BearerHeader()}
	}

	return httpdomain.RequestContext{
		Method:  method,
		Path:    req.Path(),
		Headers: httpinfra.MergeHeaders(modeHeaders, authHeaders),
		Body:    req.Payload(),
	}
}

// applyMappers stops at the first mapper error. Actions already dispatched
// stay applied.
func (d *Dispatcher) applyMappers(log hclog.Logger, data json.RawMessage, mappers []domain.Mapper) {
	for i, mapper := range mappers {
		if mapper == nil {
			continue
		}
		action, err := mapper(data)
		if err != nil {
			log.Error("response mapper failed", "mapper", i, "error", err)
			return
		}
		if action.IsZero() {
			continue
		}
		d.state.Dispatch(action)
	}
}

// forceLogout ends the session: the credential is cleared, the logout
// action dispatched, then the user is sent to the login route
func (d *Dispatcher) forceLogout(ctx context.Context) {
	if err := d.creds.Clear(ctx); err != nil {
		d.logger.Error("failed to clear credential", "error", err)
	}
	d.state.Dispatch(domain.Logout())
	d.navigator.ForceNavigate(d.loginPath)
}

var _ ports.APIDispatcher = (*Dispatcher)(nil)
