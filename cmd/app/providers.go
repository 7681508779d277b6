package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/adlens/internal/domain/analysis"
	"github.com/yanqian/adlens/internal/domain/auth"
	"github.com/yanqian/adlens/internal/domain/imaging"
	"github.com/yanqian/adlens/internal/infra/config"
	"github.com/yanqian/adlens/internal/infra/historyrepo"
	"github.com/yanqian/adlens/internal/infra/llm/chatgpt"
	"github.com/yanqian/adlens/internal/infra/resultcache"
	"github.com/yanqian/adlens/internal/infra/storage"
	"github.com/yanqian/adlens/internal/infra/userrepo"
)

func provideAnalysisConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{
		DailyLimit:  cfg.Analysis.DailyLimit,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Encoder: imaging.Config{
			MaxWidth:     cfg.Analysis.MaxWidth,
			MaxHeight:    cfg.Analysis.MaxHeight,
			MaxSizeBytes: cfg.Analysis.MaxImageBytes,
		},
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

// providePostgresPool returns nil when Postgres is not configured or not
// reachable; repository providers fall back to memory implementations.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres repositories enabled")
	return pool
}

func provideHistoryRepository(pool *pgxpool.Pool) analysis.HistoryRepository {
	if pool == nil {
		return historyrepo.NewMemoryRepository()
	}
	return historyrepo.NewPostgresRepository(pool)
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) analysis.ObjectStorage {
	if !cfg.Storage.Enabled {
		logger.Info("object storage disabled, using memory storage")
		return storage.NewMemoryStorage()
	}
	s3, err := storage.NewS3Storage(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.PublicBaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize s3 storage, using memory storage", "error", err)
		return storage.NewMemoryStorage()
	}
	logger.Info("s3 storage enabled", "bucket", cfg.Storage.Bucket)
	return s3
}

func provideResultCache(cfg *config.Config, logger *slog.Logger) analysis.ResultCache {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return resultcache.NewMemoryCache(cfg.Cache.TTL)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return resultcache.NewMemoryCache(cfg.Cache.TTL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("valkey result cache enabled", "addr", cfg.Cache.Addr)
			return resultcache.NewValkeyCache(client, "analysis", cfg.Cache.TTL)
		}
	}
	return resultcache.NewMemoryCache(cfg.Cache.TTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
