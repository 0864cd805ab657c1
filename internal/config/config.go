package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Clark-Hu/tour-ratings/internal/logging"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPath is used when CONFIG_PATH is unset.
const DefaultConfigPath = "config.yaml"

const minPasswordLen = 8

// Config captures all runtime configuration. Keys match the lower-cased
// environment variable names, so the same name works in YAML and in the env.
type Config struct {
	Port             string `koanf:"port"`
	ReadTimeoutSecs  int    `koanf:"server_read_timeout"`
	WriteTimeoutSecs int    `koanf:"server_write_timeout"`
	IdleTimeoutSecs  int    `koanf:"server_idle_timeout"`

	DBURL             string `koanf:"db_url"`
	DBMaxConns        int    `koanf:"db_max_conns"`
	DBMinConns        int    `koanf:"db_min_conns"`
	DBMaxIdleSecs     int    `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs     int    `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs int    `koanf:"db_conn_timeout_secs"`
	DBStatementCache  int    `koanf:"db_statement_cache_capacity"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	UserName      string `koanf:"auth_user_name"`
	UserPassword  string `koanf:"auth_user_password"`
	AdminName     string `koanf:"auth_admin_name"`
	AdminPassword string `koanf:"auth_admin_password"`

	AuthzModelPath  string `koanf:"authz_model_path"`
	AuthzPolicyPath string `koanf:"authz_policy_path"`

	FeatureTourRatings     bool `koanf:"feature_tour_ratings"`
	FeatureRecommendations bool `koanf:"feature_recommendations"`

	DefaultPageSize int `koanf:"api_default_page_size"`
	MaxPageSize     int `koanf:"api_max_page_size"`

	RateLimitRequests   int      `koanf:"rate_limit_requests"`
	RateLimitWindowSecs int      `koanf:"rate_limit_window_secs"`
	CORSAllowedOrigins  []string `koanf:"cors_allowed_origins"`
}

func defaultConfig() Config {
	return Config{
		Port:                   "8080",
		ReadTimeoutSecs:        15,
		WriteTimeoutSecs:       15,
		IdleTimeoutSecs:        60,
		DBMaxConns:             20,
		DBMinConns:             2,
		DBMaxIdleSecs:          300,
		DBMaxLifeSecs:          3600,
		DBConnTimeoutSecs:      10,
		DBStatementCache:       256,
		LogLevel:               "info",
		LogFormat:              "json",
		UserName:               "user",
		UserPassword:           "password",
		AdminName:              "admin",
		AdminPassword:          "admin123",
		FeatureTourRatings:     true,
		FeatureRecommendations: true,
		DefaultPageSize:        10,
		MaxPageSize:            100,
		RateLimitRequests:      100,
		RateLimitWindowSecs:    60,
		CORSAllowedOrigins:     []string{},
	}
}

// sliceKeys are parsed from comma separated strings when they come from the env.
var sliceKeys = []string{"cors_allowed_origins"}

// Load reads configuration from defaults, an optional YAML file and environment
// variables (highest priority), then validates it.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := configFilePath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey(k)), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceKeys(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c Config) Validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.LogLevel)
	}
	if c.UserName == "" || c.AdminName == "" {
		return fmt.Errorf("AUTH_USER_NAME and AUTH_ADMIN_NAME are required")
	}
	if c.UserName == c.AdminName {
		return fmt.Errorf("AUTH_USER_NAME and AUTH_ADMIN_NAME must differ")
	}
	if len(c.UserPassword) < minPasswordLen {
		return fmt.Errorf("AUTH_USER_PASSWORD must be at least %d characters", minPasswordLen)
	}
	if len(c.AdminPassword) < minPasswordLen {
		return fmt.Errorf("AUTH_ADMIN_PASSWORD must be at least %d characters", minPasswordLen)
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be between 1 and API_MAX_PAGE_SIZE")
	}
	if c.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative")
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive")
	}
	return nil
}

func configFilePath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// envKey maps an environment variable onto a known config key, ignoring
// everything else in the process environment.
func envKey(k *koanf.Koanf) func(string) string {
	return func(name string) string {
		key := strings.ToLower(name)
		if !k.Exists(key) {
			return ""
		}
		return key
	}
}

func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
