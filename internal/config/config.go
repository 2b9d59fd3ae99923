// internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`

	// Model artifacts
	Model     string `mapstructure:"model"`
	Labels    string `mapstructure:"labels"`
	ImageSize int    `mapstructure:"image_size"`

	// Request limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("model", "tree_species.onnx")
	v.SetDefault("labels", "class_mapping.json")
	v.SetDefault("image_size", 160)
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SPECIES_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("port", "SPECIES_SERVICE_PORT", "PORT")
	v.BindEnv("metrics_port", "SPECIES_SERVICE_METRICS_PORT")
	v.BindEnv("model", "SPECIES_SERVICE_MODEL")
	v.BindEnv("labels", "SPECIES_SERVICE_LABELS")
	v.BindEnv("image_size", "SPECIES_SERVICE_IMAGE_SIZE")
	v.BindEnv("otel_enabled", "SPECIES_SERVICE_OTEL_ENABLED")
	v.BindEnv("otel_endpoint", "SPECIES_SERVICE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("use_mock_inference", "SPECIES_SERVICE_USE_MOCK")
}

// Load loads configuration from environment variables and an optional config
// file discovered on the search path.
// Priority (highest to lowest): env vars > config file > defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/species-service/")
	v.AddConfigPath("$HOME/.species-service")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; ignore
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	if c.Model == "" && !c.UseMockInference {
		return fmt.Errorf("model path is required when not using mock inference")
	}
	if c.Labels == "" {
		return fmt.Errorf("labels path is required")
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("invalid image size: %d", c.ImageSize)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max upload bytes: %d", c.MaxUploadBytes)
	}
	return nil
}
