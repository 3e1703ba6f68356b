package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinvalidate/internal/schema"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 80.0, cfg.CoverageThreshold)
	assert.Equal(t, "severity", cfg.CategoryField(schema.KindAdverseEvent))
	assert.Equal(t, "gender", cfg.CategoryField(schema.KindPatient))
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := createTempYAMLFile(t, `log_level: debug
delimiter: ";"
coverage_threshold: 90
output_format: ndjson
timezone: America/New_York
category_field:
  ae: description
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90.0, cfg.CoverageThreshold)
	assert.Equal(t, "ndjson", cfg.OutputFormat)

	r, err := cfg.DelimiterRune()
	require.NoError(t, err)
	assert.Equal(t, ';', r)

	assert.Equal(t, "description", cfg.CategoryField(schema.KindAdverseEvent))
	// Keys from the defaults survive a partial map in the file
	assert.Equal(t, "gender", cfg.CategoryField(schema.KindPatient))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := createTempYAMLFile(t, "log_level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, 80.0, cfg.CoverageThreshold)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempYAMLFile(t, "log_level: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad delimiter", func(c *Config) { c.Delimiter = ";;" }},
		{"threshold too high", func(c *Config) { c.CoverageThreshold = 101 }},
		{"negative threshold", func(c *Config) { c.CoverageThreshold = -1 }},
		{"bad format", func(c *Config) { c.OutputFormat = "xml" }},
		{"unknown kind", func(c *Config) { c.CategoryFields["device"] = "model" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDelimiterRune(t *testing.T) {
	tests := map[string]rune{
		"":    ',',
		",":   ',',
		"|":   '|',
		`\t`:  '\t',
		"tab": '\t',
	}

	for in, want := range tests {
		cfg := &Config{Delimiter: in}
		got, err := cfg.DelimiterRune()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Timezone = "Europe/Berlin"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func createTempYAMLFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_UnknownCategoryKind(t *testing.T) {
	path := createTempYAMLFile(t, "category_field:\n  device: model\n")
	_, err := Load(path)
	assert.Error(t, err)
}
