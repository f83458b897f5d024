// ns is the North Star metrics CLI: extract engineering activity from
// GitHub, match it to Linear tickets, score it, and chart per-developer
// trends with stable identity resolution and colors.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/config"
	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/storage"
	"github.com/steveyegge/northstar/internal/storage/sqlite"
)

var (
	cfgPath string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ns",
	Short: "North Star engineering metrics",
	Long: `North Star collects engineering activity and turns it into
per-developer metrics: commits and PRs from GitHub, ticket matches from
Linear, impact scores, AI-tool usage, and weekly trend charts.

Every metric attributes work through the shared identity roster, so the
same person shows up under one name and one color everywhere.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "northstar.json", "team configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "metrics database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the team configuration and applies the --db override.
// Configuration errors are fatal: no command runs with a partial roster.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

// newResolver builds the identity resolver from the loaded config.
func newResolver(cfg *config.Config) *identity.Resolver {
	resolver, err := cfg.NewResolver()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return resolver
}

// openStore opens the metrics database, creating its directory if needed.
func openStore(cfg *config.Config) *sqlite.Store {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating database directory: %v\n", err)
			os.Exit(1)
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}

// lockStore acquires the exclusive write lock. Commands that write to
// the database take it so concurrent runs don't interleave.
func lockStore(cfg *config.Config) *flock.Flock {
	lock, err := storage.AcquireLock(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return lock
}
