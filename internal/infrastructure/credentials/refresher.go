package credentials

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/shop/internal/core/domain"
	httpdomain "kilometers.ai/shop/internal/core/domain/http"
	"kilometers.ai/shop/internal/core/ports"
	httpports "kilometers.ai/shop/internal/core/ports/http"
)

// DefaultRefreshPath is where the backend exchanges the refresh cookie for
// a new access token
const DefaultRefreshPath = "/auth/refresh-access-token"

// HTTPRefresher asks the backend for a new access token using the refresh
// cookie held by the transport's jar
type HTTPRefresher struct {
	transport httpports.Transport
	path      string
	logger    hclog.Logger
}

func NewHTTPRefresher(transport httpports.Transport, path string, logger hclog.Logger) *HTTPRefresher {
	if path == "" {
		path = DefaultRefreshPath
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HTTPRefresher{transport: transport, path: path, logger: logger}
}

// Refresh never sends an Authorization header, whatever credential is
// currently stored
func (r *HTTPRefresher) Refresh(ctx context.Context) (domain.Credential, bool) {
	data, err := r.transport.Send(ctx, httpdomain.RequestContext{
		Method:          http.MethodGet,
		Path:            r.path,
		WithCredentials: true,
	})
	if err != nil {
		r.logger.Warn("token refresh failed", "error", err)
		return "", false
	}

	var payload domain.RefreshPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			r.logger.Warn("token refresh returned an unreadable payload", "error", err)
			return "", false
		}
	}
	if payload.AccessToken.IsZero() {
		r.logger.Warn("token refresh returned no access token")
		return "", false
	}

	r.logger.Debug("access token refreshed")
	return payload.AccessToken, true
}

var _ ports.Refresher = (*HTTPRefresher)(nil)
