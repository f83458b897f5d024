package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/ai"
	"github.com/steveyegge/northstar/internal/analyzer"
	"github.com/steveyegge/northstar/internal/types"
)

var (
	scoreUseAI bool
	scoreModel string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored pull requests",
	Long: `Assign an impact score (0-100) to every merged pull request that
doesn't have one yet.

The default scorer is rule-based and fully deterministic. With --ai the
Anthropic API refines each rule score (requires ANTHROPIC_API_KEY); on
any API failure the rule score is kept, so runs always complete.`,
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

		existing, err := store.ListScores(ctx, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		scored := make(map[string]bool, len(existing))
		for _, s := range existing {
			scored[s.PRID] = true
		}

		var scorer *ai.Scorer
		if scoreUseAI {
			scorer, err = ai.NewScorer(&ai.Config{
				Model:   scoreModel,
				Breaker: newBreaker("anthropic"),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		count := 0
		for _, pr := range prs {
			if !pr.Merged() || scored[pr.ID()] {
				continue
			}

			var score *types.Score
			if scorer != nil {
				score, err = scorer.ScorePR(ctx, pr)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: scoring %s: %v\n", pr.ID(), err)
					os.Exit(1)
				}
			} else {
				score = analyzer.Analyze(pr)
			}

			if err := store.UpsertScore(ctx, score); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			count++
			if verbose {
				fmt.Printf("  %-20s %5.0f  %s (%s)\n", score.PRID, score.Value, score.Category, score.Method)
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Scored %d PR(s)\n", green("✓"), count)
		if count > 0 {
			fmt.Println("  Run 'ns review' to accept or override them")
		}
	},
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreUseAI, "ai", false, "refine rule scores with the Anthropic API")
	scoreCmd.Flags().StringVar(&scoreModel, "model", "", "model to score with (default from NS_MODEL_DEFAULT)")
	rootCmd.AddCommand(scoreCmd)
}
