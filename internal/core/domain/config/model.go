package configdomain

import "time"

// Priorities, lower wins
const (
	PriorityFlag     = 1
	PriorityEnv      = 2
	PriorityFile     = 3
	PriorityDotEnv   = 4
	PriorityDefaults = 9
)

// Keys
const (
	KeyAPIURL          = "api_url"
	KeyTimeout         = "timeout"
	KeyLogLevel        = "log_level"
	KeyDebug           = "debug"
	KeyVerbMode        = "verb_mode"
	KeyCredentialStore = "credential_store"
	KeyConfigDir       = "config_dir"
	KeyRedisAddr       = "redis_addr"
	KeyRedisPassword   = "redis_password"
	KeyRedisDB         = "redis_db"
	KeyProfile         = "profile"
	KeyLoginPath       = "login_path"
	KeyRefreshPath     = "refresh_path"
)

// Entry represents a single configuration value with provenance and priority.
type Entry struct {
	Key        string
	Value      interface{}
	Source     string
	SourcePath string
	Priority   int
}

// Snapshot is a collection of config entries keyed by field name.
type Snapshot map[string]Entry

// Merge merges another snapshot into this one respecting priority
// (lower number indicates higher priority).
func (s Snapshot) Merge(other Snapshot) {
	for k, e := range other {
		if existing, ok := s[k]; !ok || e.Priority <= existing.Priority {
			s[k] = e
		}
	}
}

// Set stores a value unconditionally
func (s Snapshot) Set(key string, value interface{}, source, sourcePath string, priority int) {
	s[key] = Entry{Key: key, Value: value, Source: source, SourcePath: sourcePath, Priority: priority}
}

func (s Snapshot) String(key string) string {
	if e, ok := s[key]; ok {
		if v, ok := e.Value.(string); ok {
			return v
		}
	}
	return ""
}

func (s Snapshot) Int(key string) int {
	if e, ok := s[key]; ok {
		if v, ok := e.Value.(int); ok {
			return v
		}
	}
	return 0
}

func (s Snapshot) Bool(key string) bool {
	if e, ok := s[key]; ok {
		if v, ok := e.Value.(bool); ok {
			return v
		}
	}
	return false
}

func (s Snapshot) Duration(key string) time.Duration {
	if e, ok := s[key]; ok {
		if v, ok := e.Value.(time.Duration); ok {
			return v
		}
	}
	return 0
}

// Config is the resolved, typed configuration of the client
type Config struct {
	APIURL          string
	Timeout         time.Duration
	LogLevel        string
	Debug           bool
	VerbMode        string
	CredentialStore string
	ConfigDir       string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Profile         string
	LoginPath       string
	RefreshPath     string
}

// FromSnapshot reads a Config out of a merged snapshot
func FromSnapshot(s Snapshot) Config {
	return Config{
		APIURL:          s.String(KeyAPIURL),
		Timeout:         s.Duration(KeyTimeout),
		LogLevel:        s.String(KeyLogLevel),
		Debug:           s.Bool(KeyDebug),
		VerbMode:        s.String(KeyVerbMode),
		CredentialStore: s.String(KeyCredentialStore),
		ConfigDir:       s.String(KeyConfigDir),
		RedisAddr:       s.String(KeyRedisAddr),
		RedisPassword:   s.String(KeyRedisPassword),
		RedisDB:         s.Int(KeyRedisDB),
		Profile:         s.String(KeyProfile),
		LoginPath:       s.String(KeyLoginPath),
		RefreshPath:     s.String(KeyRefreshPath),
	}
}

// EffectiveLogLevel is debug when the debug switch is on
func (c Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
