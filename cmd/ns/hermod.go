package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/hermod"
)

var hermodCfgPath string

var hermodCmd = &cobra.Command{
	Use:   "hermod",
	Short: "Collect AI-tool usage from local logs",
	Long: `Collect AI-tool usage records from the JSONL logs configured in
the Hermod TOML file and write them to the metrics database, attributed
to developers through the identity roster.

Malformed log lines are counted and skipped; a half-written line never
fails a run.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		resolver := newResolver(cfg)

		hcfg, err := hermod.LoadConfig(hermodCfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		lock := lockStore(cfg)
		defer lock.Unlock()
		store := openStore(cfg)
		defer store.Close()

		collector := hermod.NewCollector(hcfg, store, resolver)
		stats, err := collector.Run(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Collected %d record(s) from %d source(s)\n",
			green("✓"), stats.Records, stats.Sources)
		for tool, n := range stats.ByTool {
			fmt.Printf("  %-12s %d\n", tool, n)
		}
		if stats.BadLines > 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s Skipped %d malformed line(s)\n", yellow("⚠"), stats.BadLines)
		}
	},
}

func init() {
	hermodCmd.Flags().StringVar(&hermodCfgPath, "sources", ".northstar/hermod.toml", "Hermod sources configuration file")
	rootCmd.AddCommand(hermodCmd)
}
