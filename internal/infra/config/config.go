package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the per-IP request limiting middleware. This is a
// transport guard, unrelated to the per-user daily analysis quota.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains OpenAI-compatible provider settings.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float32 `yaml:"temperature"`
}

// AnalysisConfig drives the marketing feedback domain.
type AnalysisConfig struct {
	DailyLimit    int   `yaml:"dailyLimit"`
	MaxImageBytes int64 `yaml:"maxImageBytes"`
	MaxWidth      int   `yaml:"maxWidth"`
	MaxHeight     int   `yaml:"maxHeight"`
}

// StorageConfig configures the S3-compatible object store for uploaded images.
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig controls the optional Valkey result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// AuthConfig drives token issuance and Google sign-in.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	Google          GoogleConfig  `yaml:"google"`
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID             string `yaml:"clientId"`
	ClientSecret         string `yaml:"clientSecret"`
	RedirectURL          string `yaml:"redirectUrl"`
	PostLoginRedirectURL string `yaml:"postLoginRedirectUrl"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = parsed
		}
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("ANALYSIS_DAILY_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.DailyLimit = parsed
		}
	}
	if v := os.Getenv("ANALYSIS_MAX_IMAGE_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Analysis.MaxImageBytes = parsed
		}
	}
	if v := os.Getenv("STORAGE_ENABLED"); v != "" {
		cfg.Storage.Enabled = isTrue(v)
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("STORAGE_PUBLIC_BASE_URL"); v != "" {
		cfg.Storage.PublicBaseURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = isTrue(v)
	}
	if v := os.Getenv("CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("AUTH_REFRESH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.RefreshTokenTTL = parsed
		}
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URL"); v != "" {
		cfg.Auth.Google.RedirectURL = v
	}
	if v := os.Getenv("GOOGLE_POST_LOGIN_REDIRECT_URL"); v != "" {
		cfg.Auth.Google.PostLoginRedirectURL = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTrue(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = isTrue(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/analyses",
				},
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o",
			MaxTokens:   1000,
			Temperature: 0.2,
		},
		Analysis: AnalysisConfig{
			DailyLimit:    5,
			MaxImageBytes: 4 * 1024 * 1024,
			MaxWidth:      1024,
			MaxHeight:     1024,
		},
		Storage: StorageConfig{
			Enabled: false,
			Bucket:  "analysis-images",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Auth: AuthConfig{
			TokenTTL:        15 * time.Minute,
			RefreshTokenTTL: 720 * time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm.maxTokens must be positive")
	}
	if c.Analysis.DailyLimit <= 0 {
		return errors.New("analysis.dailyLimit must be positive")
	}
	if c.Analysis.MaxImageBytes <= 0 {
		return errors.New("analysis.maxImageBytes must be positive")
	}
	if c.Analysis.MaxWidth <= 0 || c.Analysis.MaxHeight <= 0 {
		return errors.New("analysis.maxWidth and maxHeight must be positive")
	}
	if c.Storage.Enabled {
		if strings.TrimSpace(c.Storage.Endpoint) == "" {
			return errors.New("storage.endpoint cannot be empty when storage is enabled")
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage.bucket cannot be empty when storage is enabled")
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return errors.New("cache.addr cannot be empty when cache is enabled")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token TTLs must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
