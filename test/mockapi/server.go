package mockapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kilometers.ai/shop/internal/core/domain"
)

// Config contains the behavior settings of the mock backend
type Config struct {
	// BasePath is the prefix every route is mounted under, e.g. /api/v1
	BasePath string
	// Secret signs access tokens (HS256)
	Secret []byte
	// AccessTTL is the lifetime written into access tokens
	AccessTTL time.Duration
	// OTP is the one-time code accepted by verify and reset-password
	OTP string
	// RefreshCookie names the httpOnly cookie carrying the refresh token
	RefreshCookie string
	// ResponseDelay is slept before every request is served
	ResponseDelay time.Duration
	// HashCost is the bcrypt cost of stored passwords
	HashCost int
}

// DefaultConfig returns the settings cmd/mockapi runs with
func DefaultConfig() Config {
	return Config{
		BasePath:      "/api/v1",
		Secret:        []byte("mock-storefront-secret"),
		AccessTTL:     15 * time.Minute,
		OTP:           "123456",
		RefreshCookie: "refreshToken",
		HashCost:      bcrypt.DefaultCost,
	}
}

// RequestInfo captures information about each request for test assertions
type RequestInfo struct {
	Method    string
	Path      string
	Headers   http.Header
	Timestamp time.Time
}

type account struct {
	user domain.User
	hash []byte
}

type cartEntry struct {
	id        string
	productID string
	quantity  int
}

// Backend is an in-memory storefront API. It serves the same routes and
// envelope as the real backend so the client can be run end to end.
type Backend struct {
	cfg     Config
	router  *mux.Router
	logger  hclog.Logger
	now     func() time.Time
	handler http.Handler

	mu          sync.Mutex
	accounts    map[string]*account // by user id
	emails      map[string]string   // email -> user id
	sessions    map[string]string   // refresh token -> user id
	products    []domain.Product
	carts       map[string][]cartEntry
	reviews     []domain.Review
	generation  int
	rejectNext  int
	failRefresh bool
	requests    []RequestInfo
	custom      map[string]http.HandlerFunc
}

// Builder provides a fluent interface for configuring the mock backend
type Builder struct {
	cfg      Config
	logger   hclog.Logger
	products []domain.Product
	users    []seedUser
	custom   map[string]http.HandlerFunc
}

type seedUser struct {
	name, email, password string
	verified              bool
}

// NewBuilder starts from DefaultConfig with an empty catalogue. Passwords
// are hashed at the minimum bcrypt cost to keep tests fast.
func NewBuilder() *Builder {
	cfg := DefaultConfig()
	cfg.HashCost = bcrypt.MinCost
	return &Builder{
		cfg:    cfg,
		logger: hclog.NewNullLogger(),
		custom: make(map[string]http.HandlerFunc),
	}
}

// WithBasePath mounts the routes under p
func (b *Builder) WithBasePath(p string) *Builder {
	b.cfg.BasePath = strings.TrimRight(p, "/")
	return b
}

// WithAccessTTL sets the lifetime of issued access tokens
func (b *Builder) WithAccessTTL(ttl time.Duration) *Builder {
	b.cfg.AccessTTL = ttl
	return b
}

// WithOTP sets the one-time code accepted by the backend
func (b *Builder) WithOTP(otp string) *Builder {
	b.cfg.OTP = otp
	return b
}

// WithResponseDelay slows every response down
func (b *Builder) WithResponseDelay(delay time.Duration) *Builder {
	b.cfg.ResponseDelay = delay
	return b
}

// WithConfig replaces every setting at once
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithLogger logs every served request to logger
func (b *Builder) WithLogger(logger hclog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithProducts seeds the catalogue. Products without an id get one.
func (b *Builder) WithProducts(products ...domain.Product) *Builder {
	b.products = append(b.products, products...)
	return b
}

// WithUser seeds a verified account
func (b *Builder) WithUser(name, email, password string) *Builder {
	b.users = append(b.users, seedUser{name: name, email: email, password: password, verified: true})
	return b
}

// WithCustomHandler replaces the handler of one route, given relative to
// the base path
func (b *Builder) WithCustomHandler(path string, handler http.HandlerFunc) *Builder {
	b.custom[path] = handler
	return b
}

// Backend creates the configured backend
func (b *Builder) Backend() (*Backend, error) {
	be := &Backend{
		cfg:      b.cfg,
		logger:   b.logger,
		now:      time.Now,
		accounts: make(map[string]*account),
		emails:   make(map[string]string),
		sessions: make(map[string]string),
		carts:    make(map[string][]cartEntry),
		custom:   b.custom,
	}

	for _, p := range b.products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		be.products = append(be.products, p)
	}
	for _, u := range b.users {
		acc, err := be.createAccount(u.name, u.email, u.password)
		if err != nil {
			return nil, err
		}
		acc.user.Verified = u.verified
	}

	be.router = be.routes()
	be.handler = be.methodOverride(be.router)
	return be, nil
}

// Server is a Backend listening on a local test server
type Server struct {
	*httptest.Server
	*Backend
}

// Start serves the backend for the duration of the test
func (b *Builder) Start(t testing.TB) *Server {
	t.Helper()
	be, err := b.Backend()
	require.NoError(t, err)

	srv := &Server{Server: httptest.NewServer(be), Backend: be}
	t.Cleanup(srv.Server.Close)
	return srv
}

// APIURL is the address a client should use as its API base URL
func (s *Server) APIURL() string {
	return s.URL + s.cfg.BasePath
}

// ServeHTTP logs the request and hands it to the router
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.cfg.ResponseDelay > 0 {
		time.Sleep(b.cfg.ResponseDelay)
	}
	b.handler.ServeHTTP(w, r)
}

// methodOverride rewrites tunnelled POSTs before routing and records the
// effective request
func (b *Backend) methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if m := r.Header.Get("X-HTTP-Method-Override"); m != "" {
				r.Method = strings.ToUpper(m)
			}
		}
		b.logRequest(r)

		if h, ok := b.custom[b.relative(r.URL.Path)]; ok {
			h(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) logRequest(r *http.Request) {
	info := RequestInfo{
		Method:    r.Method,
		Path:      b.relative(r.URL.Path),
		Headers:   r.Header.Clone(),
		Timestamp: b.now(),
	}
	b.logger.Debug("request", "method", info.Method, "path", info.Path)

	b.mu.Lock()
	b.requests = append(b.requests, info)
	b.mu.Unlock()
}

func (b *Backend) relative(p string) string {
	if b.cfg.BasePath == "" {
		return p
	}
	return strings.TrimPrefix(p, b.cfg.BasePath)
}

// Requests returns a copy of the request log
func (b *Backend) Requests() []RequestInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RequestInfo, len(b.requests))
	copy(out, b.requests)
	return out
}

// GetRequestCount returns how many requests hit method and path
func (b *Backend) GetRequestCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ExpireAccessTokens makes every access token issued so far answer 401,
// while refresh sessions stay valid
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	b.generation++
	b.mu.Unlock()
}

// RejectNext answers the next n authenticated requests with 401 whatever
// token they carry
func (b *Backend) RejectNext(n int) {
	b.mu.Lock()
	b.rejectNext = n
	b.mu.Unlock()
}

// FailRefresh makes the refresh endpoint answer 401
func (b *Backend) FailRefresh(fail bool) {
	b.mu.Lock()
	b.failRefresh = fail
	b.mu.Unlock()
}

// SessionCount returns the number of live refresh sessions
func (b *Backend) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// DefaultProducts is the catalogue cmd/mockapi serves
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{ID: "p-1001", Name: "Trail Runner Shoes", Description: "Lightweight shoes for rough ground", Price: 89.99, Stock: 24},
		{ID: "p-1002", Name: "Merino Hiking Socks", Description: "Three pairs, cushioned sole", Price: 24.50, Stock: 120},
		{ID: "p-1003", Name: "Packable Rain Jacket", Description: "Waterproof shell that folds into its pocket", Price: 129.00, Stock: 8},
		{ID: "p-1004", Name: "Insulated Bottle", Description: "750ml, keeps drinks cold for 24 hours", Price: 32.00, Stock: 56},
		{ID: "p-1005", Name: "Headlamp", Description: "Rechargeable, 400 lumens", Price: 45.75, Stock: 0},
	}
}
