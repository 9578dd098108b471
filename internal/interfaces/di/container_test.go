package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kilometers.ai/shop/internal/core/domain"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	"kilometers.ai/shop/internal/core/state"
	"kilometers.ai/shop/internal/infrastructure/credentials"
)

type navigations struct{ count atomic.Int32 }

func (n *navigations) ForceNavigate(string) { n.count.Add(1) }

func testConfig(t *testing.T, apiURL string) configdomain.Config {
	t.Helper()
	return configdomain.Config{
		APIURL:          apiURL,
		Timeout:         5 * time.Second,
		LogLevel:        "off",
		VerbMode:        "distinct",
		CredentialStore: "memory",
		ConfigDir:       t.TempDir(),
		Profile:         "test",
		LoginPath:       "/auth/login",
		RefreshPath:     "/auth/refresh-access-token",
	}
}

func TestInitializeContainer_Memory(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"_id":"p1","name":"Brass Lamp","price":25}]}`))
	}))
	defer srv.Close()

	c, cleanup, err := InitializeContainer(context.Background(), Params{Config: testConfig(t, srv.URL), Navigator: &navigations{}})
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &credentials.MemoryStore{}, c.Credentials)
	require.NotNil(t, c.Storefront)

	c.State.Dispatch(domain.SetAccessToken("tok-1"))
	c.Storefront.GetProducts(context.Background())

	assert.Equal(t, "Bearer tok-1", auth.Load())
	products := state.Products(c.State.State())
	require.Len(t, products, 1)
	assert.Equal(t, "Brass Lamp", products[0].Name)
}

func TestInitializeContainer_FileStoreHydrates(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.CredentialStore = "file"

	first, cleanup, err := InitializeContainer(context.Background(), Params{Config: cfg, Navigator: &navigations{}})
	require.NoError(t, err)
	first.State.Dispatch(domain.SetAccessToken("persisted"))
	cleanup()

	second, cleanup, err := InitializeContainer(context.Background(), Params{Config: cfg, Navigator: &navigations{}})
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, domain.Credential("persisted"), second.State.State().User.AccessToken)
}

func TestInitializeContainer_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.CredentialStore = "redis"
	cfg.RedisAddr = mr.Addr()

	c, cleanup, err := InitializeContainer(context.Background(), Params{Config: cfg, Navigator: &navigations{}})
	require.NoError(t, err)
	defer cleanup()

	c.State.Dispatch(domain.SetAccessToken("shared"))
	got, err := mr.Get("shop:credential:test")
	require.NoError(t, err)
	assert.Equal(t, "shared", got)
}

func TestInitializeContainer_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.CredentialStore = "redis"
	cfg.RedisAddr = addr

	_, _, err := InitializeContainer(context.Background(), Params{Config: cfg, Navigator: &navigations{}})
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestInitializeContainer_InvalidVerbMode(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.VerbMode = "rest"

	_, _, err := InitializeContainer(context.Background(), Params{Config: cfg, Navigator: &navigations{}})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestInitializeContainer_SessionLost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	nav := &navigations{}
	c, cleanup, err := InitializeContainer(context.Background(), Params{Config: testConfig(t, srv.URL), Navigator: nav})
	require.NoError(t, err)
	defer cleanup()

	c.State.Dispatch(domain.SetAccessToken("stale"))
	c.Storefront.GetCart(context.Background())

	assert.Equal(t, int32(1), nav.count.Load())
	assert.True(t, c.State.State().User.AccessToken.IsZero())
}

func TestOpen(t *testing.T) {
	nav := &navigations{}
	svc, err := Open(context.Background(), testConfig(t, "http://127.0.0.1:1"), nav)
	require.NoError(t, err)
	require.NotNil(t, svc.Close)
	defer svc.Close()

	assert.Equal(t, "test", svc.Config.Profile)
	assert.NotNil(t, svc.Storefront)
	assert.NotNil(t, svc.State)
	assert.NotNil(t, svc.Jar)
}
