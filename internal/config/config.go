package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	FormatText  = "text"
	FormatJSONL = "jsonl"
)

type Config struct {
	Environment string
	LogLevel    string

	RecordsPath   string
	RecordsFormat string

	RatePerMinute    float64
	AdditionalCharge float64

	AdminAddr string

	OTelEnabled     bool
	OTelServiceName string
	OTelEndpoint    string
}

// LoadEnvFile seeds the process environment from a dotenv file. Variables
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "warn"),
		RecordsPath:     getEnv("PARKING_RECORDS_FILE", "records.txt"),
		RecordsFormat:   getEnv("PARKING_RECORDS_FORMAT", FormatText),
		AdminAddr:       getEnv("PARKING_ADMIN_ADDR", ""),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "parking-billing"),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}

	var err error
	if cfg.RatePerMinute, err = getEnvFloat("PARKING_RATE_PER_MINUTE", 3.0); err != nil {
		return nil, err
	}
	if cfg.AdditionalCharge, err = getEnvFloat("PARKING_ADDITIONAL_CHARGE", 10.0); err != nil {
		return nil, err
	}
	if cfg.OTelEnabled, err = getEnvBool("OTEL_ENABLED", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate is exported so flag overrides can be re-checked after Load.
func (c *Config) Validate() error {
	if c.RatePerMinute < 0 {
		return fmt.Errorf("PARKING_RATE_PER_MINUTE must not be negative")
	}
	if c.AdditionalCharge < 0 {
		return fmt.Errorf("PARKING_ADDITIONAL_CHARGE must not be negative")
	}
	if c.RecordsPath == "" {
		return fmt.Errorf("PARKING_RECORDS_FILE is required")
	}
	switch c.RecordsFormat {
	case FormatText, FormatJSONL:
	default:
		return fmt.Errorf("PARKING_RECORDS_FORMAT must be %q or %q, got %q", FormatText, FormatJSONL, c.RecordsFormat)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
