package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Interactively review pending scores",
	Long: `Walk through every unreviewed score and accept, override, or skip
it. Only reviewed scores feed the score charts.

Commands inside the session:
  a, accept        accept the score as-is
  o N, override N  override with score N (0-100)
  s, skip          leave unreviewed for next time
  q, quit          end the session`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		lock := lockStore(cfg)
		defer lock.Unlock()
		store := openStore(cfg)
		defer store.Close()

		session := review.NewSession(store)
		stats, err := session.Run(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Reviewed %d score(s): %d accepted, %d overridden, %d skipped\n",
			green("✓"), stats.Accepted+stats.Overridden, stats.Accepted, stats.Overridden, stats.Skipped)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
