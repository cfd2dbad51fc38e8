package config

import (
	"os"
	"strconv"
	"strings"

	"ga4dash/internal"
	"ga4dash/internal/errors"
)

// DefaultMartPaths are searched in order for the mart CSV directory
var DefaultMartPaths = []string{
	"./mart_tables",
	"mart_tables",
	".",
	"/mnt/user-data/uploads",
}

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Server   ServerConfig
	Stats    StatsConfig
	LogLevel internal.LogLevel
}

// DataConfig holds mart table locations
type DataConfig struct {
	MartPaths       []string
	Workbook        string
	LoadConcurrency int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// StatsConfig holds the levels used when presenting test results
type StatsConfig struct {
	Confidence   float64
	Significance float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	level, ok := internal.ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO"))
	if !ok {
		return nil, errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE")
	}

	config := &Config{
		Data:     *loadDataConfig(),
		Server:   *loadServerConfig(),
		Stats:    *loadStatsConfig(),
		LogLevel: level,
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDataConfig() *DataConfig {
	paths := DefaultMartPaths
	if raw := os.Getenv("MART_PATHS"); raw != "" {
		paths = splitList(raw)
	}
	return &DataConfig{
		MartPaths:       paths,
		Workbook:        getEnvOrDefault("MART_WORKBOOK", ""),
		LoadConcurrency: getEnvIntOrDefault("LOAD_CONCURRENCY", 4),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadStatsConfig() *StatsConfig {
	return &StatsConfig{
		Confidence:   getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
		Significance: getEnvFloatOrDefault("SIGNIFICANCE_LEVEL", 0.05),
	}
}

func validateConfig(config *Config) error {
	if len(config.Data.MartPaths) == 0 && config.Data.Workbook == "" {
		return errors.ConfigInvalid("MART_PATHS or MART_WORKBOOK is required")
	}
	if config.Data.LoadConcurrency < 1 {
		return errors.ConfigInvalid("LOAD_CONCURRENCY must be at least 1")
	}
	if !(config.Stats.Confidence > 0 && config.Stats.Confidence < 1) {
		return errors.ConfigInvalid("CONFIDENCE_LEVEL must be in (0, 1)")
	}
	if !(config.Stats.Significance > 0 && config.Stats.Significance < 1) {
		return errors.ConfigInvalid("SIGNIFICANCE_LEVEL must be in (0, 1)")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// splitList accepts comma- or path-list-separated entries
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == os.PathListSeparator
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
