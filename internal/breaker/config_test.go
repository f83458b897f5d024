package breaker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerConfig_Validate(t *testing.T) {
	valid := CircuitBreakerConfig{
		Name:               "github",
		FailureThreshold:   5,
		SuccessThreshold:   2,
		OpenTimeoutSeconds: 30,
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, 30*time.Second, valid.OpenTimeout())

	tests := []struct {
		name   string
		mutate func(*CircuitBreakerConfig)
	}{
		{"missing name", func(c *CircuitBreakerConfig) { c.Name = "" }},
		{"zero failure threshold", func(c *CircuitBreakerConfig) { c.FailureThreshold = 0 }},
		{"failure threshold too high", func(c *CircuitBreakerConfig) { c.FailureThreshold = 101 }},
		{"zero success threshold", func(c *CircuitBreakerConfig) { c.SuccessThreshold = 0 }},
		{"success threshold too high", func(c *CircuitBreakerConfig) { c.SuccessThreshold = 21 }},
		{"zero timeout", func(c *CircuitBreakerConfig) { c.OpenTimeoutSeconds = 0 }},
		{"timeout too long", func(c *CircuitBreakerConfig) { c.OpenTimeoutSeconds = 3601 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMonitoringConfig_Validate(t *testing.T) {
	cfg := DefaultMonitoringConfig()
	require.NoError(t, cfg.Validate())

	cfg.CheckIntervalSeconds = 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultMonitoringConfig()
	cfg.Breakers = append(cfg.Breakers, cfg.Breakers[0])
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate breaker name")
}

func TestLoadMonitoringConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitoring.yaml")
	require.NoError(t, SaveDefaultMonitoringConfig(path))

	cfg, err := LoadMonitoringConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Len(t, cfg.Breakers, 3)
	assert.Equal(t, "github", cfg.Breakers[0].Name)
}

func TestLoadMonitoringConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"enabled: true\ncheck_interval_seconds: 60\nbreakers:\n  - name: github\n    failure_threshold: 0\n    success_threshold: 2\n    open_timeout_seconds: 30\n"), 0644))

	_, err := LoadMonitoringConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure_threshold")
}

func TestLoadMonitoringConfig_MissingFile(t *testing.T) {
	_, err := LoadMonitoringConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	b := FromConfig(CircuitBreakerConfig{
		Name: "github", FailureThreshold: 1, SuccessThreshold: 1, OpenTimeoutSeconds: 60,
	})
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.Snapshot().State)
}
