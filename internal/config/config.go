package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "SYNCPHOTO_"

// Like rollback policies
const (
	RollbackSymmetric = "symmetric"
	RollbackFlagOnly  = "flag_only"
)

// Config holds all configuration for the application
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Sync    SyncConfig    `yaml:"sync"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds remote client configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL"`
	WSURL   string        `yaml:"ws_url" env:"API_WS_URL"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT"`
}

// StorageConfig holds object storage configuration used to build media URLs
type StorageConfig struct {
	BaseURL    string        `yaml:"base_url" env:"STORAGE_BASE_URL"`
	Bucket     string        `yaml:"bucket" env:"STORAGE_BUCKET"`
	Region     string        `yaml:"region" env:"STORAGE_REGION"`
	Endpoint   string        `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	AccessKey  string        `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey  string        `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	Presign    bool          `yaml:"presign" env:"STORAGE_PRESIGN"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"STORAGE_PRESIGN_TTL"`
}

// SessionConfig holds durable session storage configuration
type SessionConfig struct {
	Path string `yaml:"path" env:"SESSION_PATH"`
}

// SyncConfig holds sync coordinator configuration
type SyncConfig struct {
	LikeRollback    string `yaml:"like_rollback" env:"SYNC_LIKE_ROLLBACK"`
	FeedConcurrency int    `yaml:"feed_concurrency" env:"SYNC_FEED_CONCURRENCY"`
}

// ServerConfig holds reference backend configuration
type ServerConfig struct {
	Host        string  `yaml:"host" env:"SERVER_HOST"`
	Port        int     `yaml:"port" env:"SERVER_PORT"`
	JWTSecret   string  `yaml:"jwt_secret" env:"SERVER_JWT_SECRET"`
	DatabaseDSN string  `yaml:"database_dsn" env:"SERVER_DATABASE_DSN"`
	RateLimit   float64 `yaml:"rate_limit" env:"SERVER_RATE_LIMIT"`
	RateBurst   int     `yaml:"rate_burst" env:"SERVER_RATE_BURST"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Default returns a configuration suitable for local development
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api/v1",
			WSURL:   "ws://localhost:8080/ws",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			BaseURL:    "http://localhost:9000",
			Bucket:     "photos",
			Region:     "us-east-1",
			PresignTTL: 15 * time.Minute,
		},
		Session: SessionConfig{Path: "session.db"},
		Sync: SyncConfig{
			LikeRollback:    RollbackSymmetric,
			FeedConcurrency: 4,
		},
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8080,
			JWTSecret: "dev-secret",
			RateLimit: 20,
			RateBurst: 40,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file over the defaults, then applies
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a fixed set of options
func (c *Config) Validate() error {
	switch c.Sync.LikeRollback {
	case RollbackSymmetric, RollbackFlagOnly:
	default:
		return fmt.Errorf("invalid sync.like_rollback %q", c.Sync.LikeRollback)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	return nil
}

// Addr returns the reference backend listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
