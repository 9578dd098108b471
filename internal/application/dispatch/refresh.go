package dispatch

import (
	"context"

	"kilometers.ai/shop/internal/core/domain"
)

const refreshKey = "access-token"

type refreshResult struct {
	cred domain.Credential
	ok   bool
}

// refresh obtains a token to replace rejected. Concurrent callers share one
// refresh. If the store already holds a different token, another call has
// refreshed in the meantime and that token is used as is.
func (d *Dispatcher) refresh(ctx context.Context, rejected domain.Credential) (domain.Credential, bool) {
	// the shared refresh must not fail because the first caller gave up
	flightCtx := context.WithoutCancel(ctx)

	v, _, _ := d.refreshGroup.Do(refreshKey, func() (interface{}, error) {
		if current, err := d.creds.Get(flightCtx); err == nil && !current.IsZero() && current != rejected {
			d.metrics.recordRefresh(flightCtx, refreshReused)
			return refreshResult{cred: current, ok: true}, nil
		}

		if err := d.creds.Clear(flightCtx); err != nil {
			d.logger.Warn("failed to clear rejected credential", "error", err)
		}

		cred, ok := d.refresher.Refresh(flightCtx)
		if !ok || cred.IsZero() {
			d.metrics.recordRefresh(flightCtx, refreshFailed)
			return refreshResult{}, nil
		}

		if err := d.creds.Set(flightCtx, cred); err != nil {
			d.logger.Warn("failed to store refreshed credential", "error", err)
		}
		d.state.Dispatch(domain.SetAccessToken(cred))
		d.metrics.recordRefresh(flightCtx, refreshRefreshed)
		return refreshResult{cred: cred, ok: true}, nil
	})

	res := v.(refreshResult)
	return res.cred, res.ok
}
