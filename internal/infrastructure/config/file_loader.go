package configinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configports "kilometers.ai/shop/internal/core/ports/config"
)

// FileLoader reads the saved config file (priority 3) and a .env file in
// the working directory (priority 4)
type FileLoader struct {
	path    string
	workDir string
}

// NewFileLoader loads from path, or from the default location when path
// is empty
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		path = DefaultConfigPath()
	}
	workDir, _ := os.Getwd()
	return &FileLoader{path: path, workDir: workDir}
}

// DefaultConfigPath is ~/.config/shop/config.yaml
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "shop", "config.yaml")
}

func (l *FileLoader) Name() string { return "filesystem" }

func (l *FileLoader) Path() string { return l.path }

func (l *FileLoader) Load(ctx context.Context) (configdomain.Snapshot, error) {
	snap := make(configdomain.Snapshot)

	if l.workDir != "" {
		l.loadEnvFile(filepath.Join(l.workDir, ".env"), snap)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	kv, err := decodeFile(l.path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.path, err)
	}
	for key, raw := range kv {
		if v, ok := convert(key, raw); ok {
			snap.Set(key, v, "file", l.path, configdomain.PriorityFile)
		}
	}
	return snap, nil
}

func decodeFile(path string, data []byte) (map[string]interface{}, error) {
	kv := map[string]interface{}{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &kv); err != nil {
			return nil, err
		}
		return kv, nil
	}
	if err := yaml.Unmarshal(data, &kv); err != nil {
		return nil, err
	}
	return kv, nil
}

func (l *FileLoader) loadEnvFile(path string, snap configdomain.Snapshot) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.ToUpper(strings.TrimSpace(parts[0]))
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if v, ok := convert(key, value); ok {
			snap.Set(key, v, "file", fmt.Sprintf("%s:%s", path, name), configdomain.PriorityDotEnv)
		}
	}
}

var _ configports.Loader = (*FileLoader)(nil)
