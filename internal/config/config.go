package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the function runtime
type Config struct {
	Environment string `validate:"required"`
	ServiceName string `validate:"required"`
	Version     string
	Port        string `validate:"required,numeric"`
	Log         LogConfig
	Metrics     MetricsConfig
	RateLimit   RateLimitConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"required,oneof=trace debug info warn warning error fatal panic"`
	Format string `validate:"required,oneof=json text"`
}

// MetricsConfig holds invocation metrics configuration
type MetricsConfig struct {
	Enabled   bool
	Path      string `validate:"required,startswith=/"`
	Namespace string `validate:"required"`
}

// RateLimitConfig throttles the example application. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `validate:"gte=0"`
	Burst             int     `validate:"gte=0"`
}

var validate = validator.New()

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("ENVIRONMENT", "production")
	viper.SetDefault("SERVICE_NAME", "scandium-app")
	viper.SetDefault("SERVICE_VERSION", "dev")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_PATH", "/metrics")
	viper.SetDefault("METRICS_NAMESPACE", "scandium")
	viper.SetDefault("RATE_LIMIT_RPS", 0)
	viper.SetDefault("RATE_LIMIT_BURST", 0)

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		ServiceName: viper.GetString("SERVICE_NAME"),
		Version:     viper.GetString("SERVICE_VERSION"),
		Port:        viper.GetString("PORT"),
		Log: LogConfig{
			Level:  strings.ToLower(viper.GetString("LOG_LEVEL")),
			Format: strings.ToLower(viper.GetString("LOG_FORMAT")),
		},
		Metrics: MetricsConfig{
			Enabled:   viper.GetBool("METRICS_ENABLED"),
			Path:      viper.GetString("METRICS_PATH"),
			Namespace: viper.GetString("METRICS_NAMESPACE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
