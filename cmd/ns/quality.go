package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/quality"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Run data-quality checks over the metrics database",
	Long: `Run the built-in data-quality checks: unresolved identities,
duplicate PRs, missing fields, ticket match rate, and extraction
staleness.

Exit codes:
  0 - all checks passed
  1 - at least one check failed`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		resolver := newResolver(cfg)
		store := openStore(cfg)
		defer store.Close()

		ctx := context.Background()
		commits, err := store.ListCommits(ctx, "", time.Time{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		prs, err := store.ListPullRequests(ctx, "", time.Time{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		scores, err := store.ListScores(ctx, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		snap := &quality.Snapshot{
			Commits:      commits,
			PullRequests: prs,
			Scores:       scores,
			Resolver:     resolver,
			Now:          time.Now(),
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		results := quality.RunAll(quality.DefaultChecks(quality.DefaultThresholds()), snap)
		failed := false
		for _, r := range results {
			switch r.Verdict {
			case quality.VerdictPass:
				fmt.Printf("%s %-20s %s\n", green("✓"), r.Check, r.Summary)
			case quality.VerdictWarn:
				fmt.Printf("%s %-20s %s\n", yellow("⚠"), r.Check, r.Summary)
			case quality.VerdictFail:
				failed = true
				fmt.Printf("%s %-20s %s\n", red("✗"), r.Check, r.Summary)
			}
			if verbose {
				for _, f := range r.Findings {
					fmt.Printf("    %s: %s\n", f.Subject, f.Detail)
				}
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
}
