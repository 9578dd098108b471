package configinfra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kilometers.ai/shop/internal/core/domain"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configports "kilometers.ai/shop/internal/core/ports/config"
)

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// testLoader isolates the loader from the real environment and home dir.
// dotenv is written to the working directory when non-empty.
func testLoader(t *testing.T, env map[string]string, file, dotenv string) *UnifiedLoader {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if file != "" {
		require.NoError(t, os.WriteFile(path, []byte(file), 0o600))
	}
	if dotenv != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
	}
	return &UnifiedLoader{
		loaders: []configports.Loader{
			&EnvLoader{lookup: envFrom(env)},
			&FileLoader{path: path, workDir: dir},
		},
		validator: NewConfigValidator(),
		logger:    hclog.NewNullLogger(),
	}
}

func TestUnifiedLoader_Defaults(t *testing.T) {
	cfg, err := testLoader(t, nil, "", "").Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "distinct", cfg.VerbMode)
	assert.Equal(t, "file", cfg.CredentialStore)
	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, "/auth/login", cfg.LoginPath)
	assert.Equal(t, "/auth/refresh-access-token", cfg.RefreshPath)
	assert.False(t, cfg.Debug)
}

func TestUnifiedLoader_Precedence(t *testing.T) {
	file := "api_url: https://file.example.com/api\ntimeout: 45s\nprofile: work\nverb_mode: tunnel\n"
	dotenv := "# comment\nSHOP_API_URL=https://dotenv.example.com\nSHOP_REDIS_DB=\"3\"\nOTHER=ignored\n"
	env := map[string]string{
		"SHOP_TIMEOUT": "20s",
		"SHOP_DEBUG":   "true",
	}
	loader := testLoader(t, env, file, dotenv)

	snap, err := loader.LoadSnapshot(context.Background(), LoadOptions{
		Overrides: map[string]interface{}{configdomain.KeyProfile: "cli-profile"},
	})
	require.NoError(t, err)

	// file beats dotenv
	assert.Equal(t, "https://file.example.com/api", snap.String(configdomain.KeyAPIURL))
	assert.Equal(t, "file", snap[configdomain.KeyAPIURL].Source)
	// env beats file
	assert.Equal(t, 20*time.Second, snap.Duration(configdomain.KeyTimeout))
	assert.Equal(t, "env", snap[configdomain.KeyTimeout].Source)
	// flag beats everything
	assert.Equal(t, "cli-profile", snap.String(configdomain.KeyProfile))
	assert.Equal(t, configdomain.PriorityFlag, snap[configdomain.KeyProfile].Priority)
	// dotenv beats defaults
	assert.Equal(t, 3, snap.Int(configdomain.KeyRedisDB))
	assert.Equal(t, configdomain.PriorityDotEnv, snap[configdomain.KeyRedisDB].Priority)

	cfg := configdomain.FromSnapshot(snap)
	assert.Equal(t, "tunnel", cfg.VerbMode)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestUnifiedLoader_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout": 12, "redis_db": 2, "debug": true}`), 0o600))

	snap, err := (&FileLoader{path: path}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, snap.Duration(configdomain.KeyTimeout))
	assert.Equal(t, 2, snap.Int(configdomain.KeyRedisDB))
	assert.True(t, snap.Bool(configdomain.KeyDebug))
}

func TestFileLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	snap, err := (&FileLoader{path: filepath.Join(dir, "missing.yaml")}).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("api_url: [unclosed"), 0o600))
	_, err = (&FileLoader{path: bad}).Load(context.Background())
	assert.Error(t, err)
}

func TestEnvLoader_IgnoresUnparsable(t *testing.T) {
	loader := &EnvLoader{lookup: envFrom(map[string]string{
		"SHOP_REDIS_DB": "lots",
		"SHOP_DEBUG":    "maybe",
		"SHOP_PROFILE":  "ci",
	})}

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, snap, configdomain.KeyRedisDB)
	assert.NotContains(t, snap, configdomain.KeyDebug)
	assert.Equal(t, "ci", snap.String(configdomain.KeyProfile))
	assert.Equal(t, "SHOP_PROFILE", snap[configdomain.KeyProfile].SourcePath)
}

func TestNewEnvLoader_ReadsProcessEnv(t *testing.T) {
	t.Setenv("SHOP_LOGIN_PATH", "/signin")

	snap, err := NewEnvLoader().Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/signin", snap.String(configdomain.KeyLoginPath))
}

func TestUnifiedLoader_InvalidOverride(t *testing.T) {
	_, err := testLoader(t, nil, "", "").LoadWithOptions(context.Background(), LoadOptions{
		Overrides: map[string]interface{}{configdomain.KeyTimeout: "soon"},
	})
	assert.Error(t, err)
}

func TestUnifiedLoader_ExcludeSources(t *testing.T) {
	loader := testLoader(t, map[string]string{"SHOP_PROFILE": "from-env"}, "", "")

	cfg, err := loader.LoadWithOptions(context.Background(), LoadOptions{ExcludeSources: []string{"env"}})
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Profile)
}

func TestConfigValidator(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantErr bool
	}{
		{"https url", configdomain.KeyAPIURL, "https://shop.example.com/api/v1", false},
		{"ftp url", configdomain.KeyAPIURL, "ftp://shop.example.com", true},
		{"relative url", configdomain.KeyAPIURL, "/api/v1", true},
		{"timeout too short", configdomain.KeyTimeout, 500 * time.Millisecond, true},
		{"timeout too long", configdomain.KeyTimeout, 10 * time.Minute, true},
		{"timeout ok", configdomain.KeyTimeout, time.Minute, false},
		{"log level", configdomain.KeyLogLevel, "trace", false},
		{"bad log level", configdomain.KeyLogLevel, "loud", true},
		{"tunnel", configdomain.KeyVerbMode, "tunnel", false},
		{"bad verb mode", configdomain.KeyVerbMode, "rest", true},
		{"redis store", configdomain.KeyCredentialStore, "redis", false},
		{"bad store", configdomain.KeyCredentialStore, "keychain", true},
		{"negative db", configdomain.KeyRedisDB, -1, true},
		{"profile with slash", configdomain.KeyProfile, "a/b", true},
		{"login path", configdomain.KeyLoginPath, "auth/login", true},
		{"refresh path", configdomain.KeyRefreshPath, "/auth/refresh", false},
	}

	v := NewConfigValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Defaults()
			snap.Set(tt.key, tt.value, "test", "", configdomain.PriorityFlag)

			err := v.Validate(snap)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
				assert.Contains(t, err.Error(), tt.key)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, NewConfigValidator().Validate(Defaults()))
}

func TestFileStorage_SaveMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	storage := NewFileStorage(path)
	ctx := context.Background()

	first := make(configdomain.Snapshot)
	first.Set(configdomain.KeyAPIURL, "https://a.example.com", "cli", "", configdomain.PriorityFlag)
	first.Set(configdomain.KeyTimeout, 15*time.Second, "cli", "", configdomain.PriorityFlag)
	require.NoError(t, storage.Save(ctx, first))

	second := Defaults()
	second.Set(configdomain.KeyProfile, "work", "cli", "", configdomain.PriorityFlag)
	require.NoError(t, storage.Save(ctx, second))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	saved, err := storage.LoadSaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com", saved.String(configdomain.KeyAPIURL))
	assert.Equal(t, 15*time.Second, saved.Duration(configdomain.KeyTimeout))
	assert.Equal(t, "work", saved.String(configdomain.KeyProfile))
	// defaults are never written
	assert.NotContains(t, saved, configdomain.KeyVerbMode)
}

func TestFileStorage_SetValue(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "config.yaml"))
	ctx := context.Background()

	require.NoError(t, storage.SetValue(ctx, configdomain.KeyVerbMode, "tunnel"))
	require.NoError(t, storage.SetValue(ctx, configdomain.KeyTimeout, "1m"))

	err := storage.SetValue(ctx, configdomain.KeyVerbMode, "rest")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	err = storage.SetValue(ctx, "colour", "blue")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	err = storage.SetValue(ctx, configdomain.KeyRedisDB, "one")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	saved, err := storage.LoadSaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tunnel", saved.String(configdomain.KeyVerbMode))
	assert.Equal(t, time.Minute, saved.Duration(configdomain.KeyTimeout))
}

func TestKeys_Sorted(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, len(kinds))
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, configdomain.KeyRefreshPath)
}
