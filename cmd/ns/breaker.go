package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/breaker"
)

var breakerCfgPath string

var breakerCmd = &cobra.Command{
	Use:   "breaker",
	Short: "Show circuit breaker configuration",
	Long: `Show the circuit breaker configuration protecting the GitHub,
Linear, and Anthropic clients. Without a config file the built-in
defaults apply; 'ns breaker init' writes them out for editing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, fromFile := loadMonitoringConfig()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s\n\n", cyan("=== Circuit Breakers ==="))
		if fromFile {
			fmt.Printf("Config:   %s\n", breakerCfgPath)
		} else {
			fmt.Println("Config:   built-in defaults (run 'ns breaker init' to customize)")
		}
		fmt.Printf("Enabled:  %v\n", cfg.Enabled)
		fmt.Printf("Interval: %ds, alert after open %ds\n\n", cfg.CheckIntervalSeconds, cfg.AlertAfterOpenSeconds)

		fmt.Printf("%-12s %-10s %-10s %s\n", "NAME", "FAILURES", "SUCCESSES", "OPEN TIMEOUT")
		for _, b := range cfg.Breakers {
			fmt.Printf("%-12s %-10d %-10d %s\n",
				b.Name, b.FailureThreshold, b.SuccessThreshold, b.OpenTimeout())
		}
	},
}

var breakerInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default breaker configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(breakerCfgPath); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists\n", breakerCfgPath)
			os.Exit(1)
		}
		if dir := filepath.Dir(breakerCfgPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		if err := breaker.SaveDefaultMonitoringConfig(breakerCfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Wrote %s\n", green("✓"), breakerCfgPath)
	},
}

// loadMonitoringConfig loads the breaker config file when present and
// falls back to the defaults when it isn't.
func loadMonitoringConfig() (breaker.MonitoringConfig, bool) {
	if _, err := os.Stat(breakerCfgPath); err != nil {
		return breaker.DefaultMonitoringConfig(), false
	}
	cfg, err := breaker.LoadMonitoringConfig(breakerCfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, true
}

// newBreaker builds the configured breaker for a named dependency.
// Returns nil (no short-circuiting) when monitoring is disabled or the
// name isn't configured.
func newBreaker(name string) *breaker.Breaker {
	cfg, _ := loadMonitoringConfig()
	if !cfg.Enabled {
		return nil
	}
	for _, b := range cfg.Breakers {
		if b.Name == name {
			return breaker.FromConfig(b)
		}
	}
	return nil
}

func init() {
	breakerCmd.PersistentFlags().StringVar(&breakerCfgPath, "file", ".northstar/monitoring.yaml", "breaker configuration file")
	breakerCmd.AddCommand(breakerInitCmd)
	rootCmd.AddCommand(breakerCmd)
}
