package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/steveyegge/northstar/internal/identity"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show the identity roster and assigned colors",
	Long: `Show every developer in the configured roster with their known
identifiers and their assigned chart color. Colors are derived from the
canonical name, so they never change between runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		resolver := newResolver(cfg)

		byName := make(map[string]identity.DeveloperRecord, len(cfg.Developers))
		for _, d := range cfg.Developers {
			byName[d.CanonicalName] = d
		}

		for _, name := range resolver.Roster() {
			hex := identity.ColorFor(name)
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("■")
			fmt.Printf("%s %s  %s\n", swatch, name, hex)

			if verbose {
				d := byName[name]
				printAliases("git names", d.GitNames)
				printAliases("emails", d.GitEmails)
				printAliases("github", d.GithubHandles)
				printAliases("linear", d.LinearNames)
			}
		}
		fmt.Printf("\n%d developer(s)\n", len(resolver.Roster()))
	},
}

func printAliases(label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Printf("    %-10s %s\n", label, strings.Join(values, ", "))
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}
