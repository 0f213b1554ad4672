package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-insight/internal/backtest"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from, in increasing
// priority, the defaults, the YAML file and the environment.
type Config struct {
	Provider   ProviderConfig  `yaml:"provider"`
	LLM        LLMConfig       `yaml:"llm"`
	Server     ServerConfig    `yaml:"server"`
	Storage    StorageConfig   `yaml:"storage"`
	Cache      CacheConfig     `yaml:"cache"`
	Backtest   backtest.Config `yaml:"backtest"`
	LogLevel   string          `yaml:"log_level" validate:"oneof=debug info warn error"`
	MaxWorkers int             `yaml:"max_workers" validate:"gte=1,lte=64"`
}

// ProviderConfig selects the market data source.
type ProviderConfig struct {
	Type          provider.ProviderType `yaml:"type" validate:"oneof=tushare polygon binance csv parquet"`
	TushareToken  string                `yaml:"tushare_token"`
	TushareURL    string                `yaml:"tushare_url" validate:"omitempty,url"`
	PolygonAPIKey string                `yaml:"polygon_api_key"`
	Path          string                `yaml:"path"`
}

// Options converts the section into provider options.
func (p ProviderConfig) Options() provider.Options {
	return provider.Options{
		TushareToken:  p.TushareToken,
		TushareURL:    p.TushareURL,
		PolygonAPIKey: p.PolygonAPIKey,
		Path:          p.Path,
	}
}

// LLMConfig points at an OpenAI compatible chat completions endpoint. An
// empty URL disables refinement.
type LLMConfig struct {
	URL         string        `yaml:"api_url" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model_name" validate:"required"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Enabled reports whether a completion endpoint is configured.
func (l LLMConfig) Enabled() bool {
	return l.URL != ""
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" validate:"required"`
	// BaseURL prefixes the artefact links returned to clients.
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

// StorageConfig says where analyses are written.
type StorageConfig struct {
	OutputDir string `yaml:"output_dir" validate:"required"`
	Format    string `yaml:"format" validate:"oneof=json yaml"`
	// SQLitePath adds an index database next to the files when set.
	SQLitePath string `yaml:"sqlite_path"`
}

// CacheConfig enables bar caching. An empty RedisAddr uses an in-memory cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Provider: ProviderConfig{Type: provider.ProviderTushare},
		LLM: LLMConfig{
			Model:       "groq",
			Temperature: 0.1,
			Timeout:     time.Minute,
		},
		Server: ServerConfig{
			ListenAddr: ":8000",
			BaseURL:    "http://127.0.0.1:8000",
		},
		Storage: StorageConfig{
			OutputDir: "./output",
			Format:    "json",
		},
		Cache: CacheConfig{
			TTL: provider.DefaultCacheTTL,
		},
		Backtest:   backtest.DefaultConfig(),
		LogLevel:   "info",
		MaxWorkers: 5,
	}
}

// Load reads .env from the working directory when present, then the YAML
// file at path when path is not empty, then the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read .env", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("MARKET_DATA_PROVIDER", (*string)(&cfg.Provider.Type))
	set("TUSHARE_TOKEN", &cfg.Provider.TushareToken)
	set("TUSHARE_URL", &cfg.Provider.TushareURL)
	set("POLYGON_API_KEY", &cfg.Provider.PolygonAPIKey)
	set("API_KEY", &cfg.LLM.APIKey)
	set("OPENAI_API_KEY", &cfg.LLM.APIKey)
	set("API_URL", &cfg.LLM.URL)
	set("MODEL_NAME", &cfg.LLM.Model)
	set("BASE_URL", &cfg.Server.BaseURL)
	set("LISTEN_ADDR", &cfg.Server.ListenAddr)
	set("OUTPUT_DIR", &cfg.Storage.OutputDir)
	set("SQLITE_PATH", &cfg.Storage.SQLitePath)
	set("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		cfg.Cache.RedisAddr = v
		cfg.Cache.Enabled = true
	}

	if v, ok := lookup("MAX_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxWorkers = n
		}
	}
}
