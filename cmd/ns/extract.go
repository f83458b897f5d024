package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/github"
)

var extractDays int

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract commits and PRs from GitHub",
	Long: `Extract commits and pull requests for every configured repository
and write them to the metrics database with author identities resolved.

Authentication uses NS_GITHUB_TOKEN, falling back to GITHUB_TOKEN.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		resolver := newResolver(cfg)

		repos := cfg.FullRepos()
		if len(repos) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no repositories configured (set repos and github_org)")
			os.Exit(1)
		}

		token := os.Getenv("NS_GITHUB_TOKEN")
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: NS_GITHUB_TOKEN or GITHUB_TOKEN must be set")
			os.Exit(1)
		}

		lock := lockStore(cfg)
		defer lock.Unlock()
		store := openStore(cfg)
		defer store.Close()

		client := github.NewClient(token,
			github.WithBreaker(newBreaker("github")))
		extractor := github.NewExtractor(client, store, resolver)

		runID := uuid.NewString()
		since := time.Now().AddDate(0, 0, -extractDays)
		if verbose {
			fmt.Printf("Run %s: %d repo(s) since %s\n", runID, len(repos), since.Format("2006-01-02"))
		}

		result, err := extractor.Run(context.Background(), runID, repos, since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Extracted %d commit(s) and %d PR(s) from %d repo(s) in %s\n",
			green("✓"), result.Commits, result.PullRequests, result.Repos,
			result.Elapsed.Round(time.Millisecond))
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractDays, "days", 30, "how many days of history to extract")
	rootCmd.AddCommand(extractCmd)
}
