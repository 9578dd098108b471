package configinfra

import (
	"context"
	"os"
	"strings"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configports "kilometers.ai/shop/internal/core/ports/config"
)

// EnvPrefix is prepended to the upper-cased key name, e.g. SHOP_API_URL
const EnvPrefix = "SHOP_"

type EnvLoader struct {
	lookup func(string) (string, bool)
}

func NewEnvLoader() *EnvLoader { return &EnvLoader{lookup: os.LookupEnv} }

func (l *EnvLoader) Name() string { return "env" }

// Load builds a snapshot from SHOP_* environment variables (priority 2).
// Values that do not parse for their key are ignored.
func (l *EnvLoader) Load(ctx context.Context) (configdomain.Snapshot, error) {
	snap := make(configdomain.Snapshot)
	for key := range kinds {
		name := EnvVar(key)
		raw, ok := l.lookup(name)
		if !ok || raw == "" {
			continue
		}
		if v, ok := convert(key, raw); ok {
			snap.Set(key, v, "env", name, configdomain.PriorityEnv)
		}
	}
	return snap, nil
}

// EnvVar returns the environment variable for a config key
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

var _ configports.Loader = (*EnvLoader)(nil)
