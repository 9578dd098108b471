package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/ports"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCredentialStores_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) ports.CredentialStore
	}{
		{
			name: "memory",
			build: func(t *testing.T) ports.CredentialStore {
				return NewMemoryStore()
			},
		},
		{
			name: "secure file",
			build: func(t *testing.T) ports.CredentialStore {
				store, err := NewSecureFileStore(t.TempDir(), "default")
				require.NoError(t, err)
				return store
			},
		},
		{
			name: "redis",
			build: func(t *testing.T) ports.CredentialStore {
				_, client := newTestRedis(t)
				return NewRedisStore(client, "default", 0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := tt.build(t)

			cred, err := store.Get(ctx)
			require.NoError(t, err)
			assert.True(t, cred.IsZero(), "new store should hold no credential")

			require.NoError(t, store.Set(ctx, "token-1"))
			cred, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Credential("token-1"), cred)

			require.NoError(t, store.Set(ctx, "token-2"))
			cred, err = store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Credential("token-2"), cred)

			require.NoError(t, store.Clear(ctx))
			cred, err = store.Get(ctx)
			require.NoError(t, err)
			assert.True(t, cred.IsZero())

			// clearing twice is fine
			require.NoError(t, store.Clear(ctx))
		})
	}
}

func TestSecureFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewSecureFileStore(dir, "work")
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "persisted-token"))

	second, err := NewSecureFileStore(dir, "work")
	require.NoError(t, err)
	cred, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential("persisted-token"), cred)

	raw, err := os.ReadFile(filepath.Join(dir, credentialFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "persisted-token", "file must be encrypted")

	info, err := os.Stat(filepath.Join(dir, credentialFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSecureFileStore_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	work, err := NewSecureFileStore(dir, "work")
	require.NoError(t, err)
	home, err := NewSecureFileStore(dir, "home")
	require.NoError(t, err)

	require.NoError(t, work.Set(ctx, "work-token"))
	require.NoError(t, home.Set(ctx, "home-token"))
	require.NoError(t, work.Clear(ctx))

	cred, err := home.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential("home-token"), cred)

	cred, err = work.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())
}

func TestSecureFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, credentialFileName), []byte("not encrypted"), 0600))

	store, err := NewSecureFileStore(dir, "")
	require.NoError(t, err)

	_, err = store.Get(ctx)
	assert.Error(t, err)

	// a new login replaces the unreadable file
	require.NoError(t, store.Set(ctx, "fresh"))
	cred, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential("fresh"), cred)
}

func TestRedisStore_KeyAndTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	store := NewRedisStore(client, "ci", 15*time.Minute)
	require.NoError(t, store.Set(ctx, "abc"))

	val, err := mr.Get("shop:credential:ci")
	require.NoError(t, err)
	assert.Equal(t, "abc", val)
	assert.Equal(t, 15*time.Minute, mr.TTL("shop:credential:ci"))

	mr.FastForward(16 * time.Minute)
	cred, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero(), "expired key reads as absent")
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "", 0)
	mr.Close()

	_, err := store.Get(context.Background())
	assert.Error(t, err)
}
