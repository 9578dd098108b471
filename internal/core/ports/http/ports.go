package httpports

import (
	"context"
	"encoding/json"

	httpdomain "kilometers.ai/shop/internal/core/domain/http"
)

// Transport issues one request and returns the data member of the response
// envelope. A non-2xx answer is returned as *domain.StatusError.
type Transport interface {
	Send(ctx context.Context, req httpdomain.RequestContext) (json.RawMessage, error)
}
