package configinfra

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/shop/internal/core/domain"
	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configports "kilometers.ai/shop/internal/core/ports/config"
)

const (
	minTimeout = time.Second
	maxTimeout = 5 * time.Minute
)

var credentialStores = map[string]bool{"memory": true, "file": true, "redis": true}

// ConfigValidator validates a merged snapshot
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator { return &ConfigValidator{} }

// Validate checks every known key present in snap and reports all problems
// at once
func (v *ConfigValidator) Validate(snap configdomain.Snapshot) error {
	var problems []string
	check := func(key string, fn func(configdomain.Entry) error) {
		e, ok := snap[key]
		if !ok {
			return
		}
		if err := fn(e); err != nil {
			problems = append(problems, fmt.Sprintf("%s (from %s): %v", key, e.Source, err))
		}
	}

	check(configdomain.KeyAPIURL, func(e configdomain.Entry) error {
		return ValidateAPIURL(stringValue(e))
	})
	check(configdomain.KeyTimeout, func(e configdomain.Entry) error {
		d, _ := e.Value.(time.Duration)
		if d < minTimeout || d > maxTimeout {
			return fmt.Errorf("must be between %s and %s", minTimeout, maxTimeout)
		}
		return nil
	})
	check(configdomain.KeyLogLevel, func(e configdomain.Entry) error {
		level := stringValue(e)
		if hclog.LevelFromString(level) == hclog.NoLevel {
			return fmt.Errorf("unknown log level %q", level)
		}
		return nil
	})
	check(configdomain.KeyVerbMode, func(e configdomain.Entry) error {
		switch strings.ToLower(stringValue(e)) {
		case "distinct", "tunnel":
			return nil
		}
		return fmt.Errorf("must be distinct or tunnel")
	})
	check(configdomain.KeyCredentialStore, func(e configdomain.Entry) error {
		if !credentialStores[stringValue(e)] {
			return fmt.Errorf("must be memory, file or redis")
		}
		return nil
	})
	check(configdomain.KeyRedisDB, func(e configdomain.Entry) error {
		if n, _ := e.Value.(int); n < 0 {
			return fmt.Errorf("must not be negative")
		}
		return nil
	})
	check(configdomain.KeyProfile, func(e configdomain.Entry) error {
		p := stringValue(e)
		if p == "" || strings.ContainsAny(p, `/\ `) {
			return fmt.Errorf("must be a non-empty name without slashes or spaces")
		}
		return nil
	})
	for _, key := range []string{configdomain.KeyLoginPath, configdomain.KeyRefreshPath} {
		check(key, func(e configdomain.Entry) error {
			if !strings.HasPrefix(stringValue(e), "/") {
				return fmt.Errorf("must start with /")
			}
			return nil
		})
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateAPIURL requires an absolute http(s) URL with a host
func ValidateAPIURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("API URL cannot be empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}
	return nil
}

func stringValue(e configdomain.Entry) string {
	s, _ := e.Value.(string)
	return s
}

var _ configports.Validator = (*ConfigValidator)(nil)
