package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"clinvalidate/internal/logging"
	"clinvalidate/internal/output"
	"clinvalidate/internal/schema"
)

// Config represents the YAML tool configuration
type Config struct {
	LogLevel          string            `yaml:"log_level"`
	Delimiter         string            `yaml:"delimiter"`
	CoverageThreshold float64           `yaml:"coverage_threshold"`
	OutputFormat      string            `yaml:"output_format"`
	CategoryFields    map[string]string `yaml:"category_field"`
	Timezone          string            `yaml:"timezone"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		LogLevel:          "info",
		Delimiter:         ",",
		CoverageThreshold: 80,
		OutputFormat:      string(output.FormatBundle),
		CategoryFields: map[string]string{
			string(schema.KindPatient):      "gender",
			string(schema.KindAdverseEvent): "severity",
		},
		Timezone: "UTC",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	defaults := cfg.CategoryFields
	cfg.CategoryFields = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fields, err := normalizeCategoryFields(cfg.CategoryFields, defaults)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.CategoryFields = fields

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every configured value
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if _, err := c.DelimiterRune(); err != nil {
		return err
	}

	if c.CoverageThreshold < 0 || c.CoverageThreshold > 100 {
		return fmt.Errorf("coverage_threshold must be between 0 and 100, got %v", c.CoverageThreshold)
	}

	if _, err := output.ParseFormat(c.OutputFormat); err != nil {
		return err
	}

	for key := range c.CategoryFields {
		if _, err := schema.ForKind(schema.Kind(key)); err != nil {
			return fmt.Errorf("category_field: %w", err)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// DelimiterRune returns the CSV delimiter as a single rune
func (c *Config) DelimiterRune() (rune, error) {
	if c.Delimiter == "" {
		return ',', nil
	}
	if c.Delimiter == `\t` || c.Delimiter == "tab" {
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size != len(c.Delimiter) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return r, nil
}

// Location resolves the timezone used for the enrollment-date check
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CategoryField returns the field batches of kind are categorized by
func (c *Config) CategoryField(kind schema.Kind) string {
	return c.CategoryFields[string(kind)]
}

// normalizeCategoryFields rekeys kind aliases ("ae", "patients") to their
// canonical kind and fills kinds the file left out from defaults
func normalizeCategoryFields(fields, defaults map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(defaults))
	for key, field := range fields {
		kind, err := schema.ParseKind(key)
		if err != nil {
			return nil, fmt.Errorf("category_field: %w", err)
		}
		out[string(kind)] = field
	}
	for key, field := range defaults {
		if _, ok := out[key]; !ok {
			out[key] = field
		}
	}
	return out, nil
}
