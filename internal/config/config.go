// Package config loads and validates resolver configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/licitaware/edital-resolver/internal/cache"
	"github.com/licitaware/edital-resolver/internal/extract/ocr"
	"github.com/licitaware/edital-resolver/internal/fetch"
	"github.com/licitaware/edital-resolver/internal/headless"
	"github.com/licitaware/edital-resolver/internal/registry"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Cache    cache.Config    `mapstructure:"cache"`
	Fetch    fetch.Config    `mapstructure:"fetch"`
	OCR      ocr.Config      `mapstructure:"ocr"`
	Registry registry.Config `mapstructure:"registry"`
	Headless headless.Config `mapstructure:"headless"`
	Storage  StorageConfig   `mapstructure:"storage"`
	PubSub   PubSubConfig    `mapstructure:"pubsub"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// StorageConfig selects the artifact archive backend.
type StorageConfig struct {
	// Backend is one of "none", "local", "gcs".
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for resolution completion events.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EDITAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("cache.dir", "editais_cache")
	v.SetDefault("cache.ttl", "72h")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.timeout", "60s")
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.lang", "por")
	v.SetDefault("ocr.max_pages", 10)
	v.SetDefault("ocr.dpi", 200)
	v.SetDefault("ocr.min_chars", 1500)
	v.SetDefault("registry.enabled", true)
	v.SetDefault("registry.base_url", "https://pncp.gov.br/api/consulta")
	v.SetDefault("registry.doc_base_url", "https://pncp.gov.br/pncp-api")
	v.SetDefault("registry.timeout", "45s")
	v.SetDefault("registry.total_days", 365)
	v.SetDefault("registry.step_days", 30)
	v.SetDefault("registry.page_limit", 10)
	v.SetDefault("registry.page_size", 50)
	v.SetDefault("registry.workers", 4)
	v.SetDefault("registry.qps", 8)
	v.SetDefault("registry.token_env", "REGISTRY_TOKEN")
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.timeout", "90s")
	v.SetDefault("headless.max_concurrency", 1)
	v.SetDefault("storage.backend", "none")
	v.SetDefault("storage.prefix", "editais")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.OCR.Enabled && c.OCR.MaxPages <= 0 {
		return fmt.Errorf("ocr.max_pages must be > 0 when ocr is enabled")
	}
	if c.Registry.Enabled && c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url must be set when registry is enabled")
	}
	switch c.Storage.Backend {
	case "", "none", "local", "gcs":
	default:
		return fmt.Errorf("storage.backend must be one of none, local, gcs")
	}
	if c.Storage.Backend == "local" && c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir must be set for the local backend")
	}
	if c.Storage.Backend == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
	}
	return nil
}
