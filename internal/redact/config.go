package redact

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable consulted for the config path.
const ConfigEnv = "CONTEXTTLP_REDACT_CONFIG"

// Config holds operator-defined secret pattern customizations.
type Config struct {
	ExtraSecretPatterns    []SecretPatternDef `yaml:"extra_secret_patterns"`
	DisabledSecretPatterns []string           `yaml:"disabled_secret_patterns"`
}

// SecretPatternDef defines a custom secret pattern from config.
type SecretPatternDef struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// LoadConfig loads redaction config from the given path.
// If path is empty, tries CONTEXTTLP_REDACT_CONFIG,
// then ~/.contexttlp/redact.yaml. Returns nil config (not error)
// if no file exists.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(home, ".contexttlp", "redact.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read redact config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse redact config: %w", err)
	}

	return &cfg, nil
}

// SecretPatterns returns the built-in table minus disabled names, followed
// by the extra patterns. A nil config yields the built-in table.
func (c *Config) SecretPatterns() ([]SecretPattern, error) {
	if c == nil {
		return slices.Clone(BuiltinSecretPatterns), nil
	}

	known := make(map[string]bool, len(BuiltinSecretPatterns))
	for _, p := range BuiltinSecretPatterns {
		known[p.Name] = true
	}
	for _, name := range c.DisabledSecretPatterns {
		if !known[name] {
			return nil, fmt.Errorf("disabled_secret_patterns: unknown pattern %q", name)
		}
	}

	var out []SecretPattern
	for _, p := range BuiltinSecretPatterns {
		if !slices.Contains(c.DisabledSecretPatterns, p.Name) {
			out = append(out, p)
		}
	}
	for i, def := range c.ExtraSecretPatterns {
		if def.Name == "" {
			return nil, fmt.Errorf("extra_secret_patterns[%d]: name is required", i)
		}
		if def.Regex == "" {
			return nil, fmt.Errorf("extra_secret_patterns[%d]: regex is required", i)
		}
		if known[def.Name] {
			return nil, fmt.Errorf("extra_secret_patterns[%d]: %q shadows a built-in pattern", i, def.Name)
		}
		known[def.Name] = true
		out = append(out, SecretPattern{Name: def.Name, Regex: def.Regex})
	}
	return out, nil
}

// NewFromConfig builds an engine with DefaultMarkers and the config's
// secret patterns. A nil config yields an engine equivalent to Default.
func NewFromConfig(c *Config) (*Engine, error) {
	if c == nil {
		return Default(), nil
	}
	patterns, err := c.SecretPatterns()
	if err != nil {
		return nil, err
	}
	e, err := New(DefaultMarkers, patterns)
	if err != nil {
		return nil, fmt.Errorf("redact config: %w", err)
	}
	return e, nil
}
