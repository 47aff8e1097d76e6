package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ami-data/internal/source"
)

// Default values for optional configuration fields.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultExportDir   = "export"
	DefaultSource      = "dir"
	DefaultSourceDir   = "csv"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultHTTPRetries = 3
	DefaultUpdateAt    = "00:30"
)

// Config holds application configuration. Values come from an optional YAML
// file, then environment variables, then defaults.
type Config struct {
	DBRoot       string        `yaml:"db"`
	LogLevel     string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat    string        `yaml:"log_format" validate:"oneof=text json"`
	ExportFormat string        `yaml:"export_format" validate:"oneof=csv json parquet"`
	ExportDir    string        `yaml:"export_dir" validate:"required"`
	Source       string        `yaml:"source" validate:"oneof=dir http"`
	SourceDir    string        `yaml:"source_dir" validate:"required_if=Source dir"`
	SourceURL    string        `yaml:"source_url" validate:"required_if=Source http"`
	PGDSN        string        `yaml:"pg_dsn"`
	PGTable      string        `yaml:"pg_table"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" validate:"gt=0"`
	HTTPRetries  int           `yaml:"http_retries" validate:"gte=0,lte=10"`
	HTTPInterval time.Duration `yaml:"http_min_interval" validate:"gte=0"`
	UpdateAt     string        `yaml:"update_at" validate:"required"` // HH:MM UTC, for update -daemon
}

// ConfigPath is the optional YAML file passed to LoadConfig (for Wire).
type ConfigPath string

// LoadConfig reads path (when non-empty) with ${VAR} expansion, applies
// environment overrides and defaults, then validates.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setFromEnv(&c.DBRoot, "AMI_DB")
	setFromEnv(&c.LogLevel, "LOG_LEVEL")
	setFromEnv(&c.LogFormat, "LOG_FORMAT")
	setFromEnv(&c.ExportFormat, "EXPORT_FORMAT")
	setFromEnv(&c.ExportDir, "EXPORT_DIR")
	setFromEnv(&c.Source, "SOURCE")
	setFromEnv(&c.SourceDir, "SOURCE_DIR")
	setFromEnv(&c.SourceURL, "SOURCE_URL")
	setFromEnv(&c.PGDSN, "PG_DSN")
	setFromEnv(&c.PGTable, "PG_TABLE")
	setFromEnv(&c.UpdateAt, "UPDATE_AT")
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv("HTTP_MIN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HTTP_MIN_INTERVAL: %w", err)
		}
		c.HTTPInterval = d
	}
	if v := os.Getenv("HTTP_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_RETRIES: %w", err)
		}
		c.HTTPRetries = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	for _, p := range []*string{&c.LogLevel, &c.LogFormat, &c.ExportFormat, &c.Source} {
		*p = strings.ToLower(strings.TrimSpace(*p))
	}
	c.LogLevel = orDefault(c.LogLevel, DefaultLogLevel)
	c.LogFormat = orDefault(c.LogFormat, DefaultLogFormat)
	c.ExportFormat = orDefault(c.ExportFormat, getExportFormat())
	c.ExportDir = orDefault(c.ExportDir, DefaultExportDir)
	c.Source = orDefault(c.Source, DefaultSource)
	if c.Source == "dir" {
		c.SourceDir = orDefault(c.SourceDir, DefaultSourceDir)
	}
	c.UpdateAt = orDefault(c.UpdateAt, DefaultUpdateAt)
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.HTTPRetries == 0 && os.Getenv("HTTP_RETRIES") == "" {
		c.HTTPRetries = DefaultHTTPRetries
	}
}

var validate = validator.New()

// Validate checks field values; struct tags cover the enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s fails %q (got %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value()))
		}
		return err
	}
	if c.Source == "http" && !strings.Contains(c.SourceURL, source.SymbolPlaceholder) {
		return fmt.Errorf("source_url must contain %s", source.SymbolPlaceholder)
	}
	if _, _, err := c.UpdateClock(); err != nil {
		return err
	}
	return nil
}

// UpdateClock parses UpdateAt into hour and minute.
func (c *Config) UpdateClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.UpdateAt)
	if err != nil {
		return 0, 0, fmt.Errorf("update_at must be HH:MM, got %q", c.UpdateAt)
	}
	return t.Hour(), t.Minute(), nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// getExportFormat picks the export format from PROFILE: dev → csv, otherwise parquet.
func getExportFormat() string {
	switch getEnv("PROFILE", "prod") {
	case "dev", "development":
		return "csv"
	default:
		return "parquet"
	}
}
