// internal/config/types.go
package config

import (
	"github.com/stepwright/stepwright/internal/browser"
	"github.com/stepwright/stepwright/internal/scraper"
)

// RunConfig is the top-level YAML document: browser and output settings
// plus the tab templates to execute.
type RunConfig struct {
	Name    string                `yaml:"name" json:"name"`
	Browser browser.LaunchOptions `yaml:"browser,omitempty" json:"browser,omitempty"`
	Output  OutputConfig          `yaml:"output,omitempty" json:"output,omitempty"`

	// PageRate caps page iterations per second across the run. Zero
	// disables pacing.
	PageRate float64 `yaml:"page_rate,omitempty" json:"page_rate,omitempty"`

	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	Monitoring MonitoringConfig `yaml:"monitoring,omitempty" json:"monitoring,omitempty"`

	Tabs []*scraper.TabTemplate `yaml:"tabs" json:"tabs"`
}

// OutputConfig selects where accumulated records go.
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`

	// Database sinks.
	Driver     string `yaml:"driver,omitempty" json:"driver,omitempty"`
	DSN        string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Table      string `yaml:"table,omitempty" json:"table,omitempty"`
	BatchSize  int    `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
	CreateMode string `yaml:"create_mode,omitempty" json:"create_mode,omitempty"`
}

// MonitoringConfig controls the optional metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}
