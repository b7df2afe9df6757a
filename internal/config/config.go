package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Supabase SupabaseConfig `yaml:"supabase" mapstructure:"supabase"`
	Sync     SyncConfig     `yaml:"sync" mapstructure:"sync"`
	Feed     FeedConfig     `yaml:"feed" mapstructure:"feed"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Vendors  VendorsConfig  `yaml:"vendors" mapstructure:"vendors"`
	Debug    bool           `yaml:"debug" mapstructure:"debug"`
}

// SourceConfig configures the price page fetch.
type SourceConfig struct {
	URL               string  `yaml:"url" mapstructure:"url"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyBytes      int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// Timeout returns the fetch timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// CacheConfig configures the read-through price cache.
type CacheConfig struct {
	TTLSecs  int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// ExtractConfig tunes the extraction heuristics.
type ExtractConfig struct {
	Window           int    `yaml:"window" mapstructure:"window"`
	MaxDistance      int    `yaml:"max_distance" mapstructure:"max_distance"`
	MinSchemaMatches int    `yaml:"min_schema_matches" mapstructure:"min_schema_matches"`
	Timezone         string `yaml:"timezone" mapstructure:"timezone"`
}

// StoreConfig configures the database backend. An empty driver disables
// persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SupabaseConfig holds Supabase project credentials.
type SupabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
	Key string `yaml:"key" mapstructure:"key"`
}

// Enabled reports whether both URL and key are set.
func (s SupabaseConfig) Enabled() bool {
	return s.URL != "" && s.Key != ""
}

// SyncConfig configures persistence of a scrape.
type SyncConfig struct {
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Source      string `yaml:"source" mapstructure:"source"`
}

// FeedConfig configures RSS/Atom output.
type FeedConfig struct {
	// BaseURL is the public URL of this API, used for feed self links.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host                string   `yaml:"host" mapstructure:"host"`
	Port                int      `yaml:"port" mapstructure:"port"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// VendorsConfig points at an optional vendor catalog override.
type VendorsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// legacyEnv maps config keys to the unprefixed environment variables earlier
// deployments used.
var legacyEnv = map[string]string{
	"supabase.url":   "SUPABASE_URL",
	"supabase.key":   "SUPABASE_KEY",
	"cache.ttl_secs": "CACHE_TTL",
	"server.port":    "PORT",
	"server.host":    "HOST",
	"debug":          "DEBUG",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LACAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "LACAK_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", legacy)
		}
	}

	// Defaults
	v.SetDefault("source.url", "https://galeri24.co.id/harga-emas")
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.max_body_bytes", 8<<20)
	v.SetDefault("source.requests_per_second", 1.0)
	v.SetDefault("source.burst", 2)
	v.SetDefault("cache.ttl_secs", 300)
	v.SetDefault("cache.capacity", 100)
	v.SetDefault("extract.window", 30)
	v.SetDefault("extract.max_distance", 15)
	v.SetDefault("extract.min_schema_matches", 4)
	v.SetDefault("extract.timezone", "Asia/Jakarta")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.max_conns", 5)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("sync.concurrency", 4)
	v.SetDefault("sync.source", "galeri24")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("debug", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Supabase credentials alone enable persistence, as they always have.
	if cfg.Store.Driver == "" && cfg.Supabase.Enabled() {
		cfg.Store.Driver = "supabase"
	}
	if cfg.Debug {
		cfg.Log.Level = "debug"
	}

	return &cfg, nil
}

// Validate checks the configuration for the given mode ("serve", "scrape",
// "sync", "history", "migrate", "export").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "sync", "history", "migrate":
		if c.Store.Driver == "" {
			errs = append(errs, "store.driver is required (sqlite, postgres or supabase)")
		}
	case "scrape", "export":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	case "supabase":
		if c.Supabase.URL == "" {
			errs = append(errs, "supabase.url is required")
		}
		if c.Supabase.Key == "" {
			errs = append(errs, "supabase.key is required")
		}
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, supabase")
	}

	if c.Cache.TTLSecs <= 0 {
		errs = append(errs, "cache.ttl_secs must be > 0")
	}
	if c.Source.TimeoutSecs <= 0 {
		errs = append(errs, "source.timeout_secs must be > 0")
	}
	if c.Sync.Concurrency < 1 || c.Sync.Concurrency > 32 {
		errs = append(errs, "sync.concurrency must be between 1 and 32")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Location resolves extract.timezone, falling back to a fixed UTC+7 zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Extract.Timezone)
	if err != nil || c.Extract.Timezone == "" {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
