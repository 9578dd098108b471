package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kilometers.ai/shop/internal/core/domain"
	httpdomain "kilometers.ai/shop/internal/core/domain/http"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, req httpdomain.RequestContext) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func TestHTTPRefresher_Refresh(t *testing.T) {
	tests := []struct {
		name     string
		data     json.RawMessage
		err      error
		wantCred domain.Credential
		wantOK   bool
	}{
		{
			name:     "new access token",
			data:     json.RawMessage(`{"accessToken":"fresh"}`),
			wantCred: "fresh",
			wantOK:   true,
		},
		{
			name: "backend rejects the refresh cookie",
			err:  &domain.StatusError{Method: "GET", Path: DefaultRefreshPath, Status: http.StatusUnauthorized},
		},
		{
			name: "network failure",
			err:  errors.New("connection refused"),
		},
		{
			name: "missing token",
			data: json.RawMessage(`{}`),
		},
		{
			name: "empty body",
		},
		{
			name: "unreadable payload",
			data: json.RawMessage(`"just a string"`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			want := httpdomain.RequestContext{
				Method:          http.MethodGet,
				Path:            DefaultRefreshPath,
				WithCredentials: true,
			}
			if tt.data == nil {
				transport.On("Send", mock.Anything, want).Return(nil, tt.err)
			} else {
				transport.On("Send", mock.Anything, want).Return(tt.data, tt.err)
			}

			refresher := NewHTTPRefresher(transport, "", nil)
			cred, ok := refresher.Refresh(context.Background())

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCred, cred)
			transport.AssertExpectations(t)
		})
	}
}

func TestHTTPRefresher_NeverSendsBearer(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.MatchedBy(func(req httpdomain.RequestContext) bool {
		_, hasAuth := req.Headers["Authorization"]
		return !hasAuth && req.WithCredentials && req.Path == "/custom/refresh"
	})).Return(json.RawMessage(`{"accessToken":"x"}`), nil)

	refresher := NewHTTPRefresher(transport, "/custom/refresh", nil)
	_, ok := refresher.Refresh(context.Background())

	assert.True(t, ok)
	transport.AssertExpectations(t)
}
