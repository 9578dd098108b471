package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "kilometers.ai/shop/dispatch"

// Outcome is the terminal state of one dispatch
type Outcome string

const (
	// OutcomeSuccess: the first attempt succeeded
	OutcomeSuccess Outcome = "success"
	// OutcomeRetried: the call succeeded after a 401 and a new token
	OutcomeRetried Outcome = "retried"
	// OutcomeFailed: a non-401 failure, nothing changed
	OutcomeFailed Outcome = "failed"
	// OutcomeLoggedOut: the session could not be recovered
	OutcomeLoggedOut Outcome = "logged_out"
)

const (
	refreshRefreshed = "refreshed"
	refreshReused    = "reused"
	refreshFailed    = "failed"
)

type instruments struct {
	dispatches metric.Int64Counter
	refreshes  metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}

	dispatches, err := meter.Int64Counter("storefront_dispatch_total",
		metric.WithDescription("Authenticated API calls by terminal outcome."))
	if err != nil {
		return nil, fmt.Errorf("create dispatch counter: %w", err)
	}

	refreshes, err := meter.Int64Counter("storefront_refresh_total",
		metric.WithDescription("Access token refresh attempts by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create refresh counter: %w", err)
	}

	duration, err := meter.Float64Histogram("storefront_dispatch_duration_ms",
		metric.WithDescription("Wall time of an authenticated API call including refresh and retry."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &instruments{dispatches: dispatches, refreshes: refreshes, duration: duration}, nil
}

func (i *instruments) recordDispatch(ctx context.Context, outcome Outcome, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	i.dispatches.Add(ctx, 1, attrs)
	i.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

func (i *instruments) recordRefresh(ctx context.Context, outcome string) {
	i.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
