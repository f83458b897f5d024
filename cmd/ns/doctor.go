package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/steveyegge/northstar/internal/config"
	"github.com/steveyegge/northstar/internal/storage/sqlite"
)

// minGoVersion is the oldest Go runtime the sqlite driver's wasm build
// is known to work on.
const minGoVersion = "v1.21.0"

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check ns installation and environment health",
	Long: `Run health checks to diagnose common configuration and environment
issues: the team config and roster, the metrics database, API
credentials, and the runtime.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed (but not critical)
  2 - Critical failures that prevent ns from running`,
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running ns health checks...\n\n")

		var failures, warnings, critical []string

		// Check 1: team configuration and roster
		fmt.Printf("%s Team configuration\n", cyan("→"))
		cfg, err := config.Load(cfgPath)
		if err != nil {
			critical = append(critical, fmt.Sprintf("config: %v", err))
			fmt.Printf("  %s Cannot load %s\n", red("✗"), cfgPath)
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else if resolver, err := cfg.NewResolver(); err != nil {
			critical = append(critical, fmt.Sprintf("roster: %v", err))
			fmt.Printf("  %s Roster is invalid\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else {
			fmt.Printf("  %s %s: %d developer(s)\n", green("✓"), cfgPath, len(resolver.Roster()))
			if len(cfg.Repos) == 0 {
				warnings = append(warnings, "no repos configured; 'ns extract' will have nothing to do")
				fmt.Printf("  %s No repos configured\n", yellow("⚠"))
			}
		}

		// Check 2: metrics database
		fmt.Printf("%s Metrics database\n", cyan("→"))
		if cfg == nil {
			fmt.Printf("  %s Skipped (no configuration)\n", yellow("⚠"))
		} else {
			path := cfg.DBPath
			if dbPath != "" {
				path = dbPath
			}
			if info, err := os.Stat(path); err != nil {
				warnings = append(warnings, "database missing; run 'ns extract' to create it")
				fmt.Printf("  %s No database at %s yet\n", yellow("⚠"), path)
			} else if store, err := sqlite.New(path); err != nil {
				failures = append(failures, fmt.Sprintf("database: %v", err))
				fmt.Printf("  %s Cannot open database\n", red("✗"))
				if verbose {
					fmt.Printf("    Error: %v\n", err)
				}
			} else {
				counts, err := store.Counts(context.Background())
				store.Close()
				if err != nil {
					failures = append(failures, fmt.Sprintf("database: %v", err))
					fmt.Printf("  %s Cannot query database\n", red("✗"))
				} else {
					fmt.Printf("  %s %s (%d bytes)\n", green("✓"), path, info.Size())
					if verbose {
						for table, n := range counts {
							fmt.Printf("    %-15s %d row(s)\n", table, n)
						}
					}
				}
			}
		}

		// Check 3: API credentials
		fmt.Printf("%s API credentials\n", cyan("→"))
		checkEnv := func(desc string, names ...string) {
			for _, name := range names {
				if os.Getenv(name) != "" {
					fmt.Printf("  %s %s (%s)\n", green("✓"), desc, name)
					return
				}
			}
			warnings = append(warnings, fmt.Sprintf("%s not set (%s)", desc, strings.Join(names, " or ")))
			fmt.Printf("  %s %s not set\n", yellow("⚠"), desc)
		}
		checkEnv("GitHub token", "NS_GITHUB_TOKEN", "GITHUB_TOKEN")
		checkEnv("Linear API key", "LINEAR_API_KEY")
		checkEnv("Anthropic API key", "ANTHROPIC_API_KEY")

		// Check 4: runtime
		fmt.Printf("%s Runtime\n", cyan("→"))
		goVersion := "v" + strings.TrimPrefix(runtime.Version(), "go")
		if semver.IsValid(goVersion) && semver.Compare(goVersion, minGoVersion) < 0 {
			failures = append(failures, fmt.Sprintf("Go %s is older than %s", goVersion, minGoVersion))
			fmt.Printf("  %s Go %s (need >= %s)\n", red("✗"), runtime.Version(), minGoVersion)
		} else {
			fmt.Printf("  %s %s on %s/%s\n", green("✓"), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}

		// Summary
		fmt.Println()
		switch {
		case len(critical) > 0:
			fmt.Printf("%s %d critical failure(s) prevent ns from running\n", red("✗"), len(critical))
			os.Exit(2)
		case len(failures) > 0:
			fmt.Printf("%s %d check(s) failed, %d warning(s)\n", red("✗"), len(failures), len(warnings))
			os.Exit(1)
		case len(warnings) > 0:
			fmt.Printf("%s All checks passed with %d warning(s)\n", yellow("⚠"), len(warnings))
		default:
			fmt.Printf("%s All checks passed\n", green("✓"))
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
