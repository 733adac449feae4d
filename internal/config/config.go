// Package config loads pipeline configuration from QNTROPY_* environment
// variables (optionally via a .env file) and an optional qntropy.yaml,
// following the viper + godotenv pattern used by
// Sketchyjo-STACK-BACKEND-SERVICE/internal/infrastructure/config and
// tugsousa-Rumoclaro/backend/src/config.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable named in spec §6/§9.
type Config struct {
	PriceCacheDir   string `mapstructure:"price_cache_dir"`
	PriceProvider   string `mapstructure:"price_provider"`
	PriceAPIKey     string `mapstructure:"price_api_key"`
	DefaultTimezone string `mapstructure:"tz"`
	Tolerance       string `mapstructure:"tolerance"`
	LogLevel        string `mapstructure:"log_level"`
	SkipUnknownKind bool   `mapstructure:"skip_unknown"`
	BridgeAssets    []string `mapstructure:"bridge_assets"`
	ProviderTimeout int    `mapstructure:"provider_timeout_seconds"`
	FallbackWindow  int    `mapstructure:"fallback_window_days"`
}

// Load reads configuration from (in increasing precedence) defaults,
// qntropy.yaml if present, a .env file if present, and QNTROPY_*
// environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error

	v := viper.New()
	v.SetConfigName("qntropy")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("price_cache_dir", "./prices")
	v.SetDefault("price_provider", "")
	v.SetDefault("price_api_key", "")
	v.SetDefault("tz", "Europe/Madrid")
	v.SetDefault("tolerance", "1e-8")
	v.SetDefault("log_level", "info")
	v.SetDefault("skip_unknown", false)
	v.SetDefault("bridge_assets", []string{"USD"})
	v.SetDefault("provider_timeout_seconds", 10)
	v.SetDefault("fallback_window_days", 7)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("QNTROPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit binds so QNTROPY_PRICE_CACHE_DIR etc. (named in spec §6)
	// resolve even though their mapstructure keys use underscores already.
	_ = v.BindEnv("price_cache_dir", "QNTROPY_PRICE_CACHE_DIR")
	_ = v.BindEnv("price_provider", "QNTROPY_PRICE_PROVIDER")
	_ = v.BindEnv("price_api_key", "QNTROPY_PRICE_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
