// Package chart builds per-developer weekly metric series and renders
// them as terminal bar charts and JSON artifacts. Series colors come from
// the identity color assigner so every chart shows a given person in the
// same color.
package chart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/types"
)

// Metric selects what a series counts.
type Metric string

const (
	MetricCommits Metric = "commits"
	MetricPRs     Metric = "prs"
	MetricScore   Metric = "score"
)

// weekLabel buckets a time into its ISO week, e.g. "2026-W08".
func weekLabel(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// BuildCommitSeries buckets commits per developer per ISO week.
func BuildCommitSeries(commits []*types.Commit) []types.Series {
	buckets := make(map[string]map[string]float64)
	for _, c := range commits {
		addTo(buckets, c.Author, weekLabel(c.AuthoredAt), 1)
	}
	return toSeries(buckets)
}

// BuildPRSeries buckets merged PRs per developer per ISO week.
func BuildPRSeries(prs []*types.PullRequest) []types.Series {
	buckets := make(map[string]map[string]float64)
	for _, pr := range prs {
		if !pr.Merged() {
			continue
		}
		addTo(buckets, pr.Author, weekLabel(*pr.MergedAt), 1)
	}
	return toSeries(buckets)
}

// BuildScoreSeries sums PR scores per developer per ISO week.
func BuildScoreSeries(scores []*types.Score) []types.Series {
	buckets := make(map[string]map[string]float64)
	for _, s := range scores {
		addTo(buckets, s.Author, weekLabel(s.ScoredAt), s.Value)
	}
	return toSeries(buckets)
}

func addTo(buckets map[string]map[string]float64, name, label string, v float64) {
	if name == "" {
		name = "(unknown)"
	}
	if buckets[name] == nil {
		buckets[name] = make(map[string]float64)
	}
	buckets[name][label] += v
}

// toSeries flattens buckets into sorted series: developers sorted by
// name, points sorted by week label. Colors are assigned here so every
// consumer sees the same mapping.
func toSeries(buckets map[string]map[string]float64) []types.Series {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.Series, 0, len(names))
	for _, name := range names {
		labels := make([]string, 0, len(buckets[name]))
		for label := range buckets[name] {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		s := types.Series{Name: name, Color: identity.ColorFor(name)}
		for _, label := range labels {
			s.Points = append(s.Points, types.MetricPoint{Label: label, Value: buckets[name][label]})
		}
		out = append(out, s)
	}
	return out
}

// Artifact is the JSON chart document written to the artifacts dir.
type Artifact struct {
	Metric      Metric         `json:"metric"`
	GeneratedAt time.Time      `json:"generated_at"`
	Series      []types.Series `json:"series"`
}

// WriteArtifact writes the chart JSON to dir and returns the path.
func WriteArtifact(dir string, metric Metric, series []types.Series) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating artifacts directory: %w", err)
	}

	artifact := Artifact{
		Metric:      metric,
		GeneratedAt: time.Now().UTC(),
		Series:      series,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling chart: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("chart-%s.json", metric))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing chart artifact: %w", err)
	}
	return path, nil
}
