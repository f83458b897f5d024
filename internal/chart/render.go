package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/northstar/internal/types"
)

// maxBarWidth is the widest bar rendered, in cells.
const maxBarWidth = 40

// Render draws the series as horizontal per-week bars, one block per
// series, each bar styled in the series' assigned color.
func Render(series []types.Series) string {
	if len(series) == 0 {
		return "no data\n"
	}

	maxValue := 0.0
	for _, s := range series {
		for _, p := range s.Points {
			if p.Value > maxValue {
				maxValue = p.Value
			}
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	var b strings.Builder
	for _, s := range series {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
		nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Bold(true)

		b.WriteString(nameStyle.Render(s.Name))
		b.WriteString("\n")
		for _, p := range s.Points {
			width := int(p.Value / maxValue * maxBarWidth)
			if width == 0 && p.Value > 0 {
				width = 1
			}
			bar := strings.Repeat("█", width)
			fmt.Fprintf(&b, "  %-9s %s %.0f\n", p.Label, style.Render(bar), p.Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Legend renders one line per series with its color swatch.
func Legend(series []types.Series) string {
	var b strings.Builder
	for _, s := range series {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		fmt.Fprintf(&b, "%s %s (%s)\n", swatch, s.Name, s.Color)
	}
	return b.String()
}
