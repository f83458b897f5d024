package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/storage/sqlite"
	"github.com/steveyegge/northstar/internal/types"
)

func TestBuildSeries(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer store.Close()

	authored := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertCommit(ctx, &types.Commit{
		SHA:        "abc123",
		Repo:       "acme/infra",
		Author:     "Chad Walters",
		AuthoredAt: authored,
	}))

	merged := authored.Add(24 * time.Hour)
	require.NoError(t, store.UpsertPullRequest(ctx, &types.PullRequest{
		Repo:      "acme/infra",
		Number:    7,
		Author:    "Chad Walters",
		State:     "merged",
		CreatedAt: authored,
		MergedAt:  &merged,
	}))

	since := authored.AddDate(0, 0, -7)

	series, err := buildSeries(ctx, store, "commits", since)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Chad Walters", series[0].Name)

	series, err = buildSeries(ctx, store, "prs", since)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 1.0, series[0].Points[0].Value)

	_, err = buildSeries(ctx, store, "velocity", since)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestLoadMonitoringConfig_Defaults(t *testing.T) {
	original := breakerCfgPath
	breakerCfgPath = filepath.Join(t.TempDir(), "monitoring.yaml")
	defer func() { breakerCfgPath = original }()

	cfg, fromFile := loadMonitoringConfig()
	assert.False(t, fromFile)
	assert.True(t, cfg.Enabled)
	require.Len(t, cfg.Breakers, 3)
}
