package configinfra

import (
	"strconv"
	"time"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
)

const (
	DefaultAPIURL    = "http://localhost:3001/api/v1"
	DefaultConfigDir = "~/.config/shop"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindDuration
)

// kinds lists every known key with the type its value is stored as
var kinds = map[string]valueKind{
	configdomain.KeyAPIURL:          kindString,
	configdomain.KeyTimeout:         kindDuration,
	configdomain.KeyLogLevel:        kindString,
	configdomain.KeyDebug:           kindBool,
	configdomain.KeyVerbMode:        kindString,
	configdomain.KeyCredentialStore: kindString,
	configdomain.KeyConfigDir:       kindString,
	configdomain.KeyRedisAddr:       kindString,
	configdomain.KeyRedisPassword:   kindString,
	configdomain.KeyRedisDB:         kindInt,
	configdomain.KeyProfile:         kindString,
	configdomain.KeyLoginPath:       kindString,
	configdomain.KeyRefreshPath:     kindString,
}

// Defaults returns the built-in values at the lowest priority
func Defaults() configdomain.Snapshot {
	snap := make(configdomain.Snapshot)
	set := func(key string, v interface{}) {
		snap.Set(key, v, "default", "", configdomain.PriorityDefaults)
	}

	set(configdomain.KeyAPIURL, DefaultAPIURL)
	set(configdomain.KeyTimeout, 30*time.Second)
	set(configdomain.KeyLogLevel, "warn")
	set(configdomain.KeyDebug, false)
	set(configdomain.KeyVerbMode, "distinct")
	set(configdomain.KeyCredentialStore, "file")
	set(configdomain.KeyConfigDir, DefaultConfigDir)
	set(configdomain.KeyRedisAddr, "localhost:6379")
	set(configdomain.KeyRedisPassword, "")
	set(configdomain.KeyRedisDB, 0)
	set(configdomain.KeyProfile, "default")
	set(configdomain.KeyLoginPath, "/auth/login")
	set(configdomain.KeyRefreshPath, "/auth/refresh-access-token")
	return snap
}

// convert turns a raw value into the type stored for key. ok is false for
// unknown keys and values that do not parse.
func convert(key string, raw interface{}) (interface{}, bool) {
	kind, known := kinds[key]
	if !known {
		return nil, false
	}

	switch kind {
	case kindInt:
		return toInt(raw)
	case kindBool:
		return toBool(raw)
	case kindDuration:
		return toDuration(raw)
	default:
		switch t := raw.(type) {
		case string:
			return t, true
		case int:
			return strconv.Itoa(t), true
		}
		return nil, false
	}
}

func toInt(x interface{}) (int, bool) {
	switch t := x.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toBool(x interface{}) (bool, bool) {
	switch t := x.(type) {
	case bool:
		return t, true
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b, true
		}
	}
	return false, false
}

// toDuration accepts Go duration strings and plain numbers of seconds
func toDuration(x interface{}) (time.Duration, bool) {
	switch t := x.(type) {
	case time.Duration:
		return t, true
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			return d, true
		}
		if secs, err := strconv.Atoi(t); err == nil {
			return time.Duration(secs) * time.Second, true
		}
	case int:
		return time.Duration(t) * time.Second, true
	case float64:
		return time.Duration(t * float64(time.Second)), true
	}
	return 0, false
}
