// Package config handles loading and validation of engine configuration.
// Supports development (env vars or a JSON file) and production (env vars
// plus GCP Secret Manager for credentials).
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all engine configuration.
// Environment determines whether credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development" json:"environment"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" json:"log_level"`

	// GCP settings (required in production)
	GCPProject string `envconfig:"GCP_PROJECT" json:"gcp_project"`
	SecretName string `envconfig:"STOREFRONT_SECRET" default:"storefront-credentials" json:"secret_name"`

	// SyncDebounce is the sync scheduler's settle window.
	SyncDebounce time.Duration `envconfig:"SYNC_DEBOUNCE" default:"300ms" json:"sync_debounce"`

	Storefront StorefrontConfig `json:"storefront"`
	Cache      CacheConfig      `json:"cache"`
}

// StorefrontConfig points the gateway at the backend.
type StorefrontConfig struct {
	// BaseURL is the storefront origin, e.g. https://shop.example.com.
	BaseURL string        `envconfig:"STOREFRONT_URL" json:"base_url"`
	Timeout time.Duration `envconfig:"STOREFRONT_TIMEOUT" default:"30s" json:"timeout"`

	// ServiceToken is the bearer token for an authenticated session. In
	// production it comes from Secret Manager, never from env or file.
	ServiceToken string `envconfig:"STOREFRONT_TOKEN" json:"service_token,omitempty"`
}

// CacheConfig selects the guest cart cache backend.
type CacheConfig struct {
	// RedisURL enables the Redis cache (redis://host:port/db). Empty
	// selects the in-memory cache.
	RedisURL string `envconfig:"REDIS_URL" json:"redis_url,omitempty"`

	// SessionID scopes the guest cart key. Defaults to a per-process
	// value when empty; fixed values are for server-rendered sessions.
	SessionID string `envconfig:"CART_SESSION_ID" json:"session_id,omitempty"`
}

// storefrontSecret is the Secret Manager payload shape.
type storefrontSecret struct {
	ServiceToken string `json:"service_token"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → env vars, plus Secret Manager for
// credentials in production. Validates required fields.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid juggling env vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{
		Environment:  "development",
		LogLevel:     "info",
		SyncDebounce: 300 * time.Millisecond,
	}
	cfg.Storefront.Timeout = 30 * time.Second

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches storefront credentials from GCP Secret
// Manager. Secret name format:
// projects/{project}/secrets/{secret}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretName)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	var secret storefrontSecret
	if err := json.Unmarshal(result.Payload.Data, &secret); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	c.Storefront.ServiceToken = secret.ServiceToken
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Storefront.BaseURL == "" {
		return fmt.Errorf("storefront base URL is required")
	}
	u, err := url.Parse(c.Storefront.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid storefront base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("storefront base URL must be http(s), got %q", c.Storefront.BaseURL)
	}
	if c.SyncDebounce <= 0 {
		return fmt.Errorf("sync debounce must be positive, got %s", c.SyncDebounce)
	}
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	return nil
}

// SlogLevel maps the configured log level onto slog's scale. Unknown
// values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
