package configinfra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"kilometers.ai/shop/internal/core/domain"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configports "kilometers.ai/shop/internal/core/ports/config"
)

// FileStorage persists user-set values to the YAML config file
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	if path == "" {
		path = DefaultConfigPath()
	}
	return &FileStorage{path: path}
}

// LoadSaved returns only what is in the file, without dotenv values
func (s *FileStorage) LoadSaved(ctx context.Context) (configdomain.Snapshot, error) {
	return (&FileLoader{path: s.path}).Load(ctx)
}

// Save merges snap over the saved file and writes it back. Defaults are
// not persisted.
func (s *FileStorage) Save(ctx context.Context, snap configdomain.Snapshot) error {
	saved, err := s.LoadSaved(ctx)
	if err != nil {
		saved = make(configdomain.Snapshot)
	}

	out := map[string]interface{}{}
	for _, src := range []configdomain.Snapshot{saved, snap} {
		for key, e := range src {
			if e.Priority == configdomain.PriorityDefaults {
				continue
			}
			out[key] = yamlValue(e.Value)
		}
	}

	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		var val yaml.Node
		if err := val.Encode(out[k]); err != nil {
			return fmt.Errorf("failed to encode %s: %w", k, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &val)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue validates a single raw value for key and saves it
func (s *FileStorage) SetValue(ctx context.Context, key, raw string) error {
	v, ok := convert(key, raw)
	if !ok {
		if _, known := kinds[key]; !known {
			return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
		}
		return fmt.Errorf("%w: invalid value for %s: %q", domain.ErrInvalidConfig, key, raw)
	}

	update := make(configdomain.Snapshot)
	update.Set(key, v, "file", s.path, configdomain.PriorityFile)

	check := Defaults()
	check.Merge(update)
	if err := NewConfigValidator().Validate(check); err != nil {
		return err
	}
	return s.Save(ctx, update)
}

// Keys lists every configuration key, sorted
func Keys() []string {
	keys := make([]string, 0, len(kinds))
	for k := range kinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStorage) Path() string { return s.path }

func yamlValue(v interface{}) interface{} {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}

var _ configports.Storage = (*FileStorage)(nil)
