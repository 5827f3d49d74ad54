package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Backend providers.
const (
	ProviderPerplexity = "perplexity"
	ProviderAnthropic  = "anthropic"
)

// Validation modes, one per command family.
const (
	ModeServe     = "serve"
	ModeRecommend = "recommend"
	ModeParse     = "parse"
	ModeHistory   = "history"
)

// Config holds the full application configuration.
type Config struct {
	Backend    BackendConfig    `yaml:"backend" mapstructure:"backend"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Dispatch   DispatchConfig   `yaml:"dispatch" mapstructure:"dispatch"`
	Parse      ParseConfig      `yaml:"parse" mapstructure:"parse"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	CacheSweep CacheSweepConfig `yaml:"cache_sweep" mapstructure:"cache_sweep"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// BackendConfig selects the text-generation provider.
type BackendConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"`
	MaxPromptChars int    `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DispatchConfig configures retries, caching and throttling of backend calls.
type DispatchConfig struct {
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Backoff          string  `yaml:"backoff" mapstructure:"backoff"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	Jitter           float64 `yaml:"jitter" mapstructure:"jitter"`
	CacheTTLSecs     int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	CacheEnabled     bool    `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-attempt timeout.
func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// CacheTTL returns the response cache lifetime.
func (d DispatchConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSecs) * time.Second
}

// ParseConfig caps how many items are requested and extracted.
type ParseConfig struct {
	MedicationLimit   int `yaml:"medication_limit" mapstructure:"medication_limit"`
	CombinedListLimit int `yaml:"combined_list_limit" mapstructure:"combined_list_limit"`
	SplitListLimit    int `yaml:"split_list_limit" mapstructure:"split_list_limit"`
}

// StoreConfig configures the consultation history backend.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RetentionDays int    `yaml:"retention_days" mapstructure:"retention_days"`
	MaxConns      int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns      int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Retention returns how long consultations are kept. Zero keeps them forever.
func (s StoreConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RatePerClient  float64  `yaml:"rate_per_client" mapstructure:"rate_per_client"`
	BurstPerClient int64    `yaml:"burst_per_client" mapstructure:"burst_per_client"`
	ShutdownSecs   int      `yaml:"shutdown_secs" mapstructure:"shutdown_secs"`
}

// CacheSweepConfig schedules the periodic purge of expired cache entries and
// old consultations.
type CacheSweepConfig struct {
	Interval string `yaml:"interval" mapstructure:"interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, the config file, and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MEDITREK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys also honour the vendors' conventional variable names.
	_ = v.BindEnv("perplexity.key", "MEDITREK_PERPLEXITY_KEY", "PERPLEXITY_API_KEY")
	_ = v.BindEnv("anthropic.key", "MEDITREK_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Defaults
	v.SetDefault("backend.provider", ProviderPerplexity)
	v.SetDefault("backend.max_prompt_chars", 0)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("dispatch.max_retries", 2)
	v.SetDefault("dispatch.timeout_secs", 15)
	v.SetDefault("dispatch.backoff", "exponential")
	v.SetDefault("dispatch.initial_backoff_ms", 500)
	v.SetDefault("dispatch.max_backoff_ms", 10000)
	v.SetDefault("dispatch.multiplier", 2.0)
	v.SetDefault("dispatch.jitter", 0.25)
	v.SetDefault("dispatch.cache_ttl_secs", 3600)
	v.SetDefault("dispatch.cache_enabled", true)
	v.SetDefault("dispatch.rate_per_sec", 0)
	v.SetDefault("dispatch.breaker_threshold", 5)
	v.SetDefault("dispatch.breaker_reset_secs", 30)
	v.SetDefault("parse.medication_limit", 3)
	v.SetDefault("parse.combined_list_limit", 3)
	v.SetDefault("parse.split_list_limit", 5)
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.retention_days", 30)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_per_client", 1.0)
	v.SetDefault("server.burst_per_client", 10)
	v.SetDefault("server.shutdown_secs", 15)
	v.SetDefault("cache_sweep.interval", "10m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
}

// Validate checks the settings a command family depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	needsBackend := false
	switch mode {
	case ModeServe:
		needsBackend = true
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RatePerClient < 0 {
			errs = append(errs, "server.rate_per_client must be >= 0")
		}
		if c.CacheSweep.Interval != "" {
			if _, err := time.ParseDuration(c.CacheSweep.Interval); err != nil {
				errs = append(errs, fmt.Sprintf("cache_sweep.interval is invalid: %q", c.CacheSweep.Interval))
			}
		}
	case ModeRecommend:
		needsBackend = true
	case ModeParse:
	case ModeHistory:
		if c.Store.Driver == "" || c.Store.Driver == "none" {
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "", "none", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	if needsBackend {
		errs = append(errs, c.validateBackend()...)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateBackend() []string {
	var errs []string
	switch c.Backend.Provider {
	case ProviderPerplexity:
		if c.Perplexity.Key == "" {
			errs = append(errs, "perplexity.key is required")
		}
	case ProviderAnthropic:
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("backend.provider %q is not supported", c.Backend.Provider))
	}
	if c.Dispatch.TimeoutSecs < 0 {
		errs = append(errs, "dispatch.timeout_secs must be >= 0")
	}
	if c.Dispatch.Jitter < 0 || c.Dispatch.Jitter > 1 {
		errs = append(errs, "dispatch.jitter must be between 0 and 1")
	}
	if c.Parse.MedicationLimit < 0 || c.Parse.CombinedListLimit < 0 || c.Parse.SplitListLimit < 0 {
		errs = append(errs, "parse limits must be >= 0")
	}
	return errs
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
