// Package config handles loading and validation of service configuration.
// Supports both development (env vars, optional .env file) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
)

// Resolver strategy names.
const (
	StrategyCached   = "cached"
	StrategyOnDemand = "ondemand"
)

// Failure policy names.
const (
	PolicyFallback = "fallback"
	PolicyStrict   = "strict"
)

// Config holds all service configuration.
// Environment determines whether store secrets load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	BridgeID   string // names the Secret Manager secret holding StoreConfig

	// Strategy selects SKU resolution: "cached" or "ondemand".
	Strategy string

	// FailurePolicy selects failure surfacing: "fallback" or "strict".
	FailurePolicy string

	// RebuildInterval is the cached strategy's index rebuild period.
	RebuildInterval time.Duration

	// Store holds destination-store settings (loaded from secrets in
	// production).
	Store StoreConfig
}

// StoreConfig contains destination-store settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	// Domain is the destination store's myshopify domain,
	// e.g. "example.myshopify.com".
	Domain string `json:"store_domain"`

	// AccessToken is the Storefront API public access token.
	AccessToken string `json:"storefront_token"`

	// APIVersion overrides the Storefront API version. Optional.
	APIVersion string `json:"api_version,omitempty"`

	// PageSize overrides the catalog enumeration page size. Optional.
	PageSize int `json:"page_size,omitempty"`

	// WebhookURL receives checkout notifications. Empty disables them.
	WebhookURL string `json:"webhook_url,omitempty"`

	// FallbackCartURL is the origin store's cart URL, the destination of
	// fallback redirects. Required under the fallback policy.
	FallbackCartURL string `json:"fallback_cart_url,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Local development reads a .env file when one exists.
	if envOrDefault("ENVIRONMENT", "development") != "production" {
		godotenv.Load()
	}

	cfg := &Config{
		Port:          envOrDefault("PORT", "8080"),
		Environment:   envOrDefault("ENVIRONMENT", "development"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		GCPProject:    os.Getenv("GCP_PROJECT"),
		BridgeID:      os.Getenv("BRIDGE_ID"),
		Strategy:      envOrDefault("RESOLVER_STRATEGY", StrategyOnDemand),
		FailurePolicy: envOrDefault("FAILURE_POLICY", PolicyFallback),
	}

	var err error
	if cfg.RebuildInterval, err = parseInterval(os.Getenv("REBUILD_INTERVAL")); err != nil {
		return nil, err
	}

	// Load store config based on environment
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.BridgeID == "" {
			return nil, fmt.Errorf("BRIDGE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port            string      `json:"port"`
		Environment     string      `json:"environment"`
		LogLevel        string      `json:"log_level"`
		Strategy        string      `json:"resolver_strategy"`
		FailurePolicy   string      `json:"failure_policy"`
		RebuildInterval string      `json:"rebuild_interval"`
		Store           StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:          withDefault(fileConfig.Port, "8080"),
		Environment:   withDefault(fileConfig.Environment, "development"),
		LogLevel:      withDefault(fileConfig.LogLevel, "info"),
		Strategy:      withDefault(fileConfig.Strategy, StrategyOnDemand),
		FailurePolicy: withDefault(fileConfig.FailurePolicy, PolicyFallback),
		Store:         fileConfig.Store,
	}

	if cfg.RebuildInterval, err = parseInterval(fileConfig.RebuildInterval); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// parseInterval parses the rebuild interval, defaulting to zero (which
// lets the index manager apply its own default).
func parseInterval(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing rebuild interval %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("rebuild interval must not be negative")
	}
	return d, nil
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{bridge_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.BridgeID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		Domain:          os.Getenv("STORE_DOMAIN"),
		AccessToken:     os.Getenv("STOREFRONT_TOKEN"),
		APIVersion:      os.Getenv("STOREFRONT_API_VERSION"),
		WebhookURL:      os.Getenv("NOTIFY_WEBHOOK_URL"),
		FallbackCartURL: os.Getenv("FALLBACK_CART_URL"),
	}

	if raw := os.Getenv("CATALOG_PAGE_SIZE"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parsing CATALOG_PAGE_SIZE: %w", err)
		}
		c.Store.PageSize = size
	}

	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	switch c.Strategy {
	case StrategyCached, StrategyOnDemand:
	default:
		return fmt.Errorf("unsupported resolver strategy: %s", c.Strategy)
	}

	switch c.FailurePolicy {
	case PolicyFallback, PolicyStrict:
	default:
		return fmt.Errorf("unsupported failure policy: %s", c.FailurePolicy)
	}

	if c.Store.Domain == "" {
		return fmt.Errorf("store_domain is required")
	}
	if c.Store.AccessToken == "" {
		return fmt.Errorf("storefront_token is required")
	}

	if c.FailurePolicy == PolicyFallback {
		if c.Store.FallbackCartURL == "" {
			return fmt.Errorf("fallback_cart_url is required under the fallback policy")
		}
		if _, err := url.Parse(c.Store.FallbackCartURL); err != nil {
			return fmt.Errorf("invalid fallback_cart_url: %w", err)
		}
	}

	return nil
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
