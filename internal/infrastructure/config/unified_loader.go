package configinfra

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configports "kilometers.ai/shop/internal/core/ports/config"
)

// LoadOptions carries command-line overrides and source filters
type LoadOptions struct {
	// Overrides are flag values keyed by config key, applied at priority 1
	Overrides      map[string]interface{}
	ExcludeSources []string
}

// UnifiedLoader merges defaults, every loader and flag overrides into one
// validated snapshot
type UnifiedLoader struct {
	loaders   []configports.Loader
	validator configports.Validator
	logger    hclog.Logger
}

// NewUnifiedLoader reads the env and the config file at path (default
// location when empty)
func NewUnifiedLoader(path string, logger hclog.Logger) *UnifiedLoader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &UnifiedLoader{
		loaders:   []configports.Loader{NewEnvLoader(), NewFileLoader(path)},
		validator: NewConfigValidator(),
		logger:    logger,
	}
}

func (l *UnifiedLoader) Load(ctx context.Context) (configdomain.Config, error) {
	snap, err := l.LoadSnapshot(ctx, LoadOptions{})
	if err != nil {
		return configdomain.Config{}, err
	}
	return configdomain.FromSnapshot(snap), nil
}

// LoadWithOptions resolves the configuration with flag overrides applied
func (l *UnifiedLoader) LoadWithOptions(ctx context.Context, opts LoadOptions) (configdomain.Config, error) {
	snap, err := l.LoadSnapshot(ctx, opts)
	if err != nil {
		return configdomain.Config{}, err
	}
	return configdomain.FromSnapshot(snap), nil
}

// LoadSnapshot keeps provenance for every value, for `shop config show`
func (l *UnifiedLoader) LoadSnapshot(ctx context.Context, opts LoadOptions) (configdomain.Snapshot, error) {
	snap := Defaults()

	for _, loader := range l.loaders {
		if excluded(loader.Name(), opts.ExcludeSources) {
			continue
		}
		loaded, err := loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s config: %w", loader.Name(), err)
		}
		l.logger.Trace("config source loaded", "source", loader.Name(), "keys", len(loaded))
		snap.Merge(loaded)
	}

	overrides := make(configdomain.Snapshot)
	for key, raw := range opts.Overrides {
		v, ok := convert(key, raw)
		if !ok {
			return nil, fmt.Errorf("invalid value for --%s: %v", key, raw)
		}
		overrides.Set(key, v, "cli", "command_line_flag", configdomain.PriorityFlag)
	}
	snap.Merge(overrides)

	if err := l.validator.Validate(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func excluded(name string, list []string) bool {
	for _, e := range list {
		if e == name {
			return true
		}
	}
	return false
}
