// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// unmarshalStrict decodes YAML rejecting unknown fields, so selector or
// flag typos surface at load time instead of silently doing nothing.
func unmarshalStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// LoadFromFile loads a run configuration from a YAML file.
func LoadFromFile(filename string) (*RunConfig, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads a run configuration from YAML bytes. Environment
// variables referenced as ${VAR} are expanded before parsing.
func LoadFromBytes(data []byte) (*RunConfig, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg RunConfig
	if err := unmarshalStrict([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return &cfg, nil
}

// LoadFromReader loads a run configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*RunConfig, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}

	return LoadFromBytes(data)
}

// applyDefaults fills zero values with run defaults.
func applyDefaults(cfg *RunConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}

	if cfg.Output.BatchSize == 0 {
		cfg.Output.BatchSize = 100
	}

	if cfg.Browser.ViewportWidth == 0 {
		cfg.Browser.ViewportWidth = 1280
	}

	if cfg.Browser.ViewportHeight == 0 {
		cfg.Browser.ViewportHeight = 800
	}

	if cfg.Monitoring.Enabled && cfg.Monitoring.Address == "" {
		cfg.Monitoring.Address = ":9090"
	}
}

// normalize folds the deprecated flat steps field into perPageSteps so
// downstream code only ever sees one page-step source.
func normalize(cfg *RunConfig) {
	for _, tab := range cfg.Tabs {
		if len(tab.PerPageSteps) == 0 && len(tab.Steps) > 0 {
			tab.PerPageSteps = tab.Steps
		}
		tab.Steps = nil
	}
}
