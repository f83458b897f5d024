package breaker

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CircuitBreakerConfig is the declarative breaker schema from the
// monitoring config file.
type CircuitBreakerConfig struct {
	// Name identifies the protected dependency, e.g. "github", "anthropic".
	Name string `yaml:"name"`

	// FailureThreshold is the number of consecutive failures before the
	// circuit opens. Range: 1-100.
	FailureThreshold int `yaml:"failure_threshold"`

	// SuccessThreshold is the number of half-open successes required to
	// close the circuit. Range: 1-20.
	SuccessThreshold int `yaml:"success_threshold"`

	// OpenTimeoutSeconds is how long the circuit stays open before
	// half-opening. Range: 1-3600.
	OpenTimeoutSeconds int `yaml:"open_timeout_seconds"`
}

// OpenTimeout returns the open timeout as a duration.
func (c CircuitBreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutSeconds) * time.Second
}

// Validate checks the breaker config for safe values.
func (c CircuitBreakerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("breaker name is required")
	}
	if c.FailureThreshold < 1 || c.FailureThreshold > 100 {
		return fmt.Errorf("breaker %q: failure_threshold must be between 1 and 100 (got %d)",
			c.Name, c.FailureThreshold)
	}
	if c.SuccessThreshold < 1 || c.SuccessThreshold > 20 {
		return fmt.Errorf("breaker %q: success_threshold must be between 1 and 20 (got %d)",
			c.Name, c.SuccessThreshold)
	}
	if c.OpenTimeoutSeconds < 1 || c.OpenTimeoutSeconds > 3600 {
		return fmt.Errorf("breaker %q: open_timeout_seconds must be between 1 and 3600 (got %d)",
			c.Name, c.OpenTimeoutSeconds)
	}
	return nil
}

// MonitoringConfig is the top-level monitoring schema: a set of named
// circuit breakers plus alerting knobs.
type MonitoringConfig struct {
	// Enabled controls whether breaker monitoring runs at all.
	Enabled bool `yaml:"enabled"`

	// CheckIntervalSeconds is how often monitoring polls breaker state.
	// Range: 5-3600.
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`

	// AlertAfterOpenSeconds is how long a circuit may stay open before an
	// alert is emitted. Range: 0 (immediately) to 86400.
	AlertAfterOpenSeconds int `yaml:"alert_after_open_seconds"`

	// Breakers are the per-dependency breaker configs.
	Breakers []CircuitBreakerConfig `yaml:"breakers"`
}

// DefaultMonitoringConfig returns the default monitoring configuration.
func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		Enabled:               true,
		CheckIntervalSeconds:  60,
		AlertAfterOpenSeconds: 300,
		Breakers: []CircuitBreakerConfig{
			{Name: "github", FailureThreshold: 5, SuccessThreshold: 2, OpenTimeoutSeconds: 30},
			{Name: "linear", FailureThreshold: 5, SuccessThreshold: 2, OpenTimeoutSeconds: 30},
			{Name: "anthropic", FailureThreshold: 5, SuccessThreshold: 2, OpenTimeoutSeconds: 30},
		},
	}
}

// Validate checks the monitoring config and every breaker in it.
func (c MonitoringConfig) Validate() error {
	if c.CheckIntervalSeconds < 5 || c.CheckIntervalSeconds > 3600 {
		return fmt.Errorf("check_interval_seconds must be between 5 and 3600 (got %d)",
			c.CheckIntervalSeconds)
	}
	if c.AlertAfterOpenSeconds < 0 || c.AlertAfterOpenSeconds > 86400 {
		return fmt.Errorf("alert_after_open_seconds must be between 0 and 86400 (got %d)",
			c.AlertAfterOpenSeconds)
	}

	seen := make(map[string]bool)
	for _, b := range c.Breakers {
		if err := b.Validate(); err != nil {
			return err
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate breaker name %q", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// LoadMonitoringConfig loads and validates monitoring configuration from a
// YAML file.
func LoadMonitoringConfig(path string) (MonitoringConfig, error) {
	var cfg MonitoringConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid monitoring config: %w", err)
	}
	return cfg, nil
}

// SaveDefaultMonitoringConfig writes the default configuration to a file.
func SaveDefaultMonitoringConfig(path string) error {
	data, err := yaml.Marshal(DefaultMonitoringConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
