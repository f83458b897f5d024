package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/chart"
	"github.com/steveyegge/northstar/internal/storage"
	"github.com/steveyegge/northstar/internal/types"
)

var (
	chartMetric string
	chartDays   int
	chartWrite  bool
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render per-developer weekly trend charts",
	Long: `Render a per-developer bar chart of weekly activity. Metrics:

  commits  commits per week
  prs      merged PRs per week
  score    summed PR scores per week

Every developer keeps the same color across charts and runs. With
--write the chart is also saved as a JSON artifact.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		ctx := context.Background()
		since := time.Now().AddDate(0, 0, -chartDays)

		series, err := buildSeries(ctx, store, chartMetric, since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(chart.Render(series))
		fmt.Print(chart.Legend(series))

		if chartWrite {
			path, err := chart.WriteArtifact(cfg.ArtifactsDir, chart.Metric(chartMetric), series)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("\nWrote %s\n", path)
		}
	},
}

// buildSeries loads the data behind one chart metric. Shared with the
// anomaly command so both read the same series.
func buildSeries(ctx context.Context, store storage.Storage, metric string, since time.Time) ([]types.Series, error) {
	switch metric {
	case string(chart.MetricCommits):
		commits, err := store.ListCommits(ctx, "", since)
		if err != nil {
			return nil, err
		}
		return chart.BuildCommitSeries(commits), nil
	case string(chart.MetricPRs):
		prs, err := store.ListPullRequests(ctx, "", since)
		if err != nil {
			return nil, err
		}
		return chart.BuildPRSeries(prs), nil
	case string(chart.MetricScore):
		scores, err := store.ListScores(ctx, false)
		if err != nil {
			return nil, err
		}
		return chart.BuildScoreSeries(scores), nil
	default:
		return nil, fmt.Errorf("unknown metric %q (commits, prs, score)", metric)
	}
}

func init() {
	chartCmd.Flags().StringVar(&chartMetric, "metric", "commits", "metric to chart: commits, prs, score")
	chartCmd.Flags().IntVar(&chartDays, "days", 90, "how many days of history to chart")
	chartCmd.Flags().BoolVar(&chartWrite, "write", false, "also write the chart as a JSON artifact")
	rootCmd.AddCommand(chartCmd)
}
