// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config is the oralgen configuration file.
type Config struct {
	// Producer is written as the SOUR of exported documents.
	Producer string `yaml:"producer"`
	// Strict turns schema warnings into export failures.
	Strict bool `yaml:"strict"`
	// Database is the path of the session database.
	Database string `yaml:"database"`
	// Concurrency bounds how many files the CLI exports at once.
	Concurrency int     `yaml:"concurrency"`
	Log         Logging `yaml:"log"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns a Config with every field set.
func Defaults() Config {
	return Config{
		Producer:    "OralGen",
		Database:    "oralgen.db",
		Concurrency: 4,
		Log:         Logging{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes raw YAML over the defaults.
func Parse(raw []byte) (Config, error) {
	var over Config
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.UnmarshalWithOptions(raw, &over, yaml.Strict()); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg := Merge(Defaults(), over)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge overlays the non-zero fields of over on base. Strict can only be
// switched on.
func Merge(base, over Config) Config {
	out := base
	if strings.TrimSpace(over.Producer) != "" {
		out.Producer = strings.TrimSpace(over.Producer)
	}
	if over.Strict {
		out.Strict = true
	}
	if strings.TrimSpace(over.Database) != "" {
		out.Database = strings.TrimSpace(over.Database)
	}
	if over.Concurrency != 0 {
		out.Concurrency = over.Concurrency
	}
	if strings.TrimSpace(over.Log.Level) != "" {
		out.Log.Level = strings.ToLower(strings.TrimSpace(over.Log.Level))
	}
	if strings.TrimSpace(over.Log.Format) != "" {
		out.Log.Format = strings.ToLower(strings.TrimSpace(over.Log.Format))
	}
	return out
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
