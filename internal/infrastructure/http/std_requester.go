package httpinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"kilometers.ai/shop/internal/core/domain"
	httpdomain "kilometers.ai/shop/internal/core/domain/http"
	httpports "kilometers.ai/shop/internal/core/ports/http"
)

const maxErrorBody = 4 << 10

// StdTransport sends requests to the storefront backend with net/http.
// Cookies set by any response are kept in the jar, but only requests made
// WithCredentials send them back.
type StdTransport struct {
	endpoint httpdomain.BackendEndpoint
	client   *http.Client
	jar      http.CookieJar
	headers  map[string]string
	logger   hclog.Logger
}

// NewStdTransport creates a transport for the given backend. A nil jar gets
// an in-memory one.
func NewStdTransport(endpoint httpdomain.BackendEndpoint, timeout time.Duration, jar http.CookieJar, logger hclog.Logger) (*StdTransport, error) {
	if _, err := url.Parse(endpoint.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if jar == nil {
		memJar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		jar = memJar
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	headers := map[string]string{"Accept": "application/json"}
	if endpoint.UserAgent != "" {
		headers["User-Agent"] = endpoint.UserAgent
	}

	return &StdTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		jar:      jar,
		headers:  headers,
		logger:   logger,
	}, nil
}

// Send performs the request and returns the envelope data
func (t *StdTransport) Send(ctx context.Context, req httpdomain.RequestContext) (json.RawMessage, error) {
	fullURL, err := joinURL(t.endpoint.BaseURL, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req.Method, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range MergeHeaders(t.headers, req.Headers) {
		httpReq.Header.Set(k, v)
	}

	if req.WithCredentials {
		for _, c := range t.jar.Cookies(httpReq.URL) {
			httpReq.AddCookie(c)
		}
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if cookies := resp.Cookies(); len(cookies) > 0 {
		t.jar.SetCookies(httpReq.URL, cookies)
	}

	t.logger.Debug("request completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", httpReq.Header.Get("X-Request-ID"),
		"duration", time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.StatusError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   errBody,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var envelope domain.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return envelope.Data, nil
}

// Cookies returns the cookies held for credential-mode requests to path
func (t *StdTransport) Cookies(path string) []*http.Cookie {
	full, err := joinURL(t.endpoint.BaseURL, path, nil)
	if err != nil {
		return nil
	}
	u, err := url.Parse(full)
	if err != nil {
		return nil
	}
	return t.jar.Cookies(u)
}

func joinURL(base, p string, q map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = joinPath(u.Path, p)
	if len(q) > 0 {
		vals := u.Query()
		for k, v := range q {
			vals.Set(k, v)
		}
		u.RawQuery = vals.Encode()
	}
	return u.String(), nil
}

func joinPath(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a[len(a)-1] == '/' {
		a = a[:len(a)-1]
	}
	if b[0] != '/' {
		b = "/" + b
	}
	return a + b
}

var _ httpports.Transport = (*StdTransport)(nil)
