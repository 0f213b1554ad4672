package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-insight/internal/analysis"
	"github.com/rxtech-lab/argo-insight/internal/config"
	"github.com/rxtech-lab/argo-insight/internal/logger"
	"github.com/rxtech-lab/argo-insight/internal/narrative"
	"github.com/rxtech-lab/argo-insight/internal/store"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// session holds what every command builds from the configuration.
type session struct {
	config  config.Config
	logger  *logger.Logger
	closers []func() error
}

// setup loads the configuration and creates the logger.
func setup(cmd *cli.Command) (*session, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}

	return &session{config: cfg, logger: log}, nil
}

// Close releases the stores and caches opened by the session.
func (r *session) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}

	_ = r.logger.Sync()
}

// provider creates the configured provider, wrapped in a cache when enabled.
// A non-empty path switches to the csv or parquet file provider.
func (r *session) provider(ctx context.Context, path string) (provider.Provider, error) {
	cfg := r.config.Provider
	if path != "" {
		cfg.Path = path
		cfg.Type = provider.ProviderCSV

		if filepath.Ext(path) == ".parquet" {
			cfg.Type = provider.ProviderParquet
		}
	}

	p, err := provider.NewMarketDataProvider(cfg.Type, cfg.Options())
	if err != nil {
		return nil, err
	}

	if !r.config.Cache.Enabled || path != "" {
		return p, nil
	}

	if r.config.Cache.RedisAddr == "" {
		return provider.NewCachedProvider(p, provider.NewMemoryCache(), string(cfg.Type), r.config.Cache.TTL, r.logger), nil
	}

	cache := provider.NewRedisCache(provider.RedisCacheConfig{Addr: r.config.Cache.RedisAddr})
	if err := cache.Ping(ctx); err != nil {
		r.logger.Warn("Redis is unreachable, bars will not be cached", zap.String("addr", r.config.Cache.RedisAddr), zap.Error(err))
	}

	r.closers = append(r.closers, cache.Close)

	return provider.NewCachedProvider(p, cache, string(cfg.Type), r.config.Cache.TTL, r.logger), nil
}

// store opens the file store and, when configured, the sqlite index.
func (r *session) store() (store.Store, error) {
	files, err := store.NewFileStore(r.config.Storage.OutputDir, store.Format(r.config.Storage.Format))
	if err != nil {
		return nil, err
	}

	if r.config.Storage.SQLitePath == "" {
		return files, nil
	}

	if err := os.MkdirAll(filepath.Dir(r.config.Storage.SQLitePath), 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to create index directory", err)
	}

	index, err := store.NewSQLiteStore(r.config.Storage.SQLitePath, r.logger)
	if err != nil {
		return nil, err
	}

	r.closers = append(r.closers, index.Close)

	return store.NewMultiStore(files, index), nil
}

// completer returns nil when no completion endpoint is configured or disabled is set.
func (r *session) completer(disabled bool) narrative.Completer {
	if disabled || !r.config.LLM.Enabled() {
		return nil
	}

	return narrative.NewChatCompleter(narrative.ChatConfig{
		URL:         r.config.LLM.URL,
		APIKey:      r.config.LLM.APIKey,
		Model:       r.config.LLM.Model,
		Temperature: r.config.LLM.Temperature,
		Timeout:     r.config.LLM.Timeout,
	})
}

// service builds the analysis service. Persistence and refinement are only
// wired when requested.
func (r *session) service(p provider.Provider, st store.Store, completer narrative.Completer, opts ...analysis.Option) *analysis.Service {
	all := []analysis.Option{
		analysis.WithBacktestConfig(r.config.Backtest),
		analysis.WithMaxWorkers(r.config.MaxWorkers),
	}

	if st != nil {
		all = append(all, analysis.WithStore(st))
	}

	if completer != nil {
		all = append(all, analysis.WithCompleter(completer))
	}

	return analysis.NewService(p, r.logger, append(all, opts...)...)
}
