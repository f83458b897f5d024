package chart

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/types"
)

func TestWeekLabel(t *testing.T) {
	// 2026-02-17 is a Tuesday in ISO week 8.
	assert.Equal(t, "2026-W08", weekLabel(time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)))
	// ISO week years differ from calendar years at the boundary.
	assert.Equal(t, "2026-W01", weekLabel(time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)))
}

func TestBuildCommitSeries(t *testing.T) {
	w1 := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)  // W06
	w2 := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC) // W07

	series := BuildCommitSeries([]*types.Commit{
		{SHA: "a", Author: "Chad Walters", AuthoredAt: w1},
		{SHA: "b", Author: "Chad Walters", AuthoredAt: w1},
		{SHA: "c", Author: "Chad Walters", AuthoredAt: w2},
		{SHA: "d", Author: "EJ", AuthoredAt: w2},
	})

	require.Len(t, series, 2)
	// Sorted by developer name.
	assert.Equal(t, "Chad Walters", series[0].Name)
	assert.Equal(t, "EJ", series[1].Name)

	require.Len(t, series[0].Points, 2)
	assert.Equal(t, types.MetricPoint{Label: "2026-W06", Value: 2}, series[0].Points[0])
	assert.Equal(t, types.MetricPoint{Label: "2026-W07", Value: 1}, series[0].Points[1])

	// Colors come from the shared assigner.
	assert.Equal(t, identity.ColorFor("Chad Walters"), series[0].Color)
	assert.Equal(t, identity.ColorFor("EJ"), series[1].Color)
}

func TestBuildPRSeries_OnlyMerged(t *testing.T) {
	merged := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	series := BuildPRSeries([]*types.PullRequest{
		{Repo: "r", Number: 1, Author: "EJ", MergedAt: &merged},
		{Repo: "r", Number: 2, Author: "EJ"}, // open, not counted
	})

	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 1)
	assert.Equal(t, 1.0, series[0].Points[0].Value)
}

func TestBuildScoreSeries_SumsValues(t *testing.T) {
	at := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	series := BuildScoreSeries([]*types.Score{
		{PRID: "r#1", Author: "JP", Value: 40, ScoredAt: at},
		{PRID: "r#2", Author: "JP", Value: 35, ScoredAt: at},
	})

	require.Len(t, series, 1)
	assert.Equal(t, 75.0, series[0].Points[0].Value)
}

func TestBuildCommitSeries_UnknownAuthorBucket(t *testing.T) {
	series := BuildCommitSeries([]*types.Commit{
		{SHA: "a", Author: "", AuthoredAt: time.Now()},
	})

	require.Len(t, series, 1)
	assert.Equal(t, "(unknown)", series[0].Name)
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	series := BuildCommitSeries([]*types.Commit{
		{SHA: "a", Author: "EJ", AuthoredAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)},
	})

	path, err := WriteArtifact(dir, MetricCommits, series)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "chart-commits.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var artifact Artifact
	require.NoError(t, json.Unmarshal(data, &artifact))
	assert.Equal(t, MetricCommits, artifact.Metric)
	require.Len(t, artifact.Series, 1)
	assert.Equal(t, identity.ColorFor("EJ"), artifact.Series[0].Color)
}

func TestRender(t *testing.T) {
	series := []types.Series{
		{
			Name:  "EJ",
			Color: "#1f77b4",
			Points: []types.MetricPoint{
				{Label: "2026-W06", Value: 4},
				{Label: "2026-W07", Value: 8},
			},
		},
	}

	out := Render(series)
	assert.Contains(t, out, "EJ")
	assert.Contains(t, out, "2026-W06")
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "8")
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "no data\n", Render(nil))
}

func TestLegend(t *testing.T) {
	out := Legend([]types.Series{{Name: "EJ", Color: "#1f77b4"}})
	assert.Contains(t, out, "EJ")
	assert.Contains(t, out, "#1f77b4")
}
