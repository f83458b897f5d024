package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/linear"
)

var matchVerify bool

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match PRs to Linear tickets",
	Long: `Scan stored pull requests for Linear ticket keys and record the
match. Keys are taken from the branch name first, then the title, then
the body.

With --verify, each matched key is checked against the Linear API
(requires LINEAR_API_KEY); keys that don't resolve to an issue are
reported but still recorded.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		lock := lockStore(cfg)
		defer lock.Unlock()
		store := openStore(cfg)
		defer store.Close()

		ctx := context.Background()
		prs, err := store.ListPullRequests(ctx, "", time.Time{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var client *linear.Client
		if matchVerify {
			apiKey := os.Getenv("LINEAR_API_KEY")
			if apiKey == "" {
				fmt.Fprintln(os.Stderr, "Error: --verify requires LINEAR_API_KEY")
				os.Exit(1)
			}
			client = linear.NewClient(apiKey, linear.WithBreaker(newBreaker("linear")))
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		matched, unmatched, unverified := 0, 0, 0
		for _, pr := range prs {
			key := linear.MatchPR(pr)
			if key == "" {
				unmatched++
				if verbose {
					fmt.Printf("  %s no ticket key in %s\n", yellow("⚠"), pr.ID())
				}
				continue
			}

			if client != nil {
				ticket, err := client.GetTicket(ctx, key)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: verifying %s: %v\n", key, err)
					os.Exit(1)
				}
				if ticket == nil {
					unverified++
					fmt.Printf("  %s %s references %s, which Linear doesn't know\n",
						yellow("⚠"), pr.ID(), key)
				}
			}

			if err := store.SetTicketKey(ctx, pr.ID(), key); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			matched++
		}

		// Commits get no stored key; their references are reported so the
		// ticket-linkage picture covers direct-to-main work too.
		commits, err := store.ListCommits(ctx, "", time.Time{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		commitRefs := 0
		for _, c := range commits {
			if linear.MatchCommit(c) != "" {
				commitRefs++
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Matched %d of %d PR(s)", green("✓"), matched, len(prs))
		if matchVerify {
			fmt.Printf(" (%d key(s) unknown to Linear)", unverified)
		}
		fmt.Println()
		if unmatched > 0 {
			fmt.Printf("  %d PR(s) carry no ticket key\n", unmatched)
		}
		fmt.Printf("  %d of %d commit(s) reference a ticket\n", commitRefs, len(commits))
	},
}

func init() {
	matchCmd.Flags().BoolVar(&matchVerify, "verify", false, "verify matched keys against the Linear API")
	rootCmd.AddCommand(matchCmd)
}
