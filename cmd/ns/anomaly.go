package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/anomaly"
)

var (
	anomalyMetric string
	anomalyDays   int
)

var anomalyCmd = &cobra.Command{
	Use:   "anomaly",
	Short: "Detect outliers in per-developer weekly series",
	Long: `Run IQR and z-score outlier detection over a per-developer weekly
metric series. Anomalies are reported, never acted on: a spike might be
a data bug or just a big week.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		ctx := context.Background()
		since := time.Now().AddDate(0, 0, -anomalyDays)

		series, err := buildSeries(ctx, store, anomalyMetric, since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		anomalies := anomaly.DetectAll(series,
			anomaly.DefaultIQRConfig(), anomaly.DefaultZScoreConfig())

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		if len(anomalies) == 0 {
			fmt.Printf("%s No anomalies in %d series\n", green("✓"), len(series))
			return
		}

		for _, a := range anomalies {
			fmt.Printf("%s %s %s: %.0f is %s (%s)\n",
				yellow("⚠"), a.Series, a.Label, a.Value, a.Direction, a.Detail)
		}
		fmt.Printf("\n%d anomal(ies) across %d series\n", len(anomalies), len(series))
	},
}

func init() {
	anomalyCmd.Flags().StringVar(&anomalyMetric, "metric", "commits", "metric to inspect: commits, prs, score")
	anomalyCmd.Flags().IntVar(&anomalyDays, "days", 180, "how many days of history to inspect")
	rootCmd.AddCommand(anomalyCmd)
}
