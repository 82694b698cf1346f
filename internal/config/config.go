package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

const (
	StorageBackendFile     = "file"
	StorageBackendPostgres = "postgres"
)

// default front-end origins (local dev servers and the hosted coordinator app)
var DefaultAllowedOrigins = []string{
	"http://localhost:5500",
	"http://127.0.0.1:5500",
	"http://localhost:8080",
	"http://127.0.0.1:8080",
	"https://exquisite-naiad-d9a129.netlify.app",
}

type Config struct {
	Environment string `toml:"-"`

	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsHost string `toml:"metrics_host"`
	MetricsPort int    `toml:"metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	DataDir        string `toml:"data_dir"`
	StorageBackend string `toml:"storage_backend"`
	// collections over ~1/1024 of the cache are not cached
	CacheSizeMB    int    `toml:"cache_size_mb"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// redis (login tokens, rate limiting)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	AuthRequired   bool     `toml:"auth_required"`
	AllowedOrigins []string `toml:"allowed_origins"`
	LoginsPerMin   int      `toml:"logins_per_min"`
	Timezone       string   `toml:"timezone"`

	Secrets Secrets `toml:"-"`
}

// Secrets are never kept in the config file
type Secrets struct {
	PasswordHash     string `env:"SKI_SCHEDULER_PASSWORD_HASH"`
	RedisPassword    string `env:"SKI_SCHEDULER_REDIS_PASS"`
	PostgresPassword string `env:"SKI_SCHEDULER_POSTGRES_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	FrontendURL      string `env:"FRONTEND_URL"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML config for env, and the secrets from the process environment
func Load(env, path string) (*Config, error) {
	return LoadWithLookuper(context.Background(), env, path, envconfig.OsLookuper())
}

func LoadWithLookuper(ctx context.Context, env, path string, lookuper envconfig.Lookuper) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(ctx, env, string(content), lookuper)
}

func Parse(ctx context.Context, env, content string, lookuper envconfig.Lookuper) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg.Secrets,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 2112
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = StorageBackendFile
	}
	if c.LoginsPerMin == 0 {
		c.LoginsPerMin = 10
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = DefaultAllowedOrigins
	}
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageBackendFile, StorageBackendPostgres:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Origins returns the CORS allow-list, FRONTEND_URL included
func (c *Config) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins)+1)
	origins = append(origins, c.AllowedOrigins...)
	if c.Secrets.FrontendURL != "" {
		origins = append(origins, c.Secrets.FrontendURL)
	}
	return origins
}

// Location of calendar dates; empty means local time
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
