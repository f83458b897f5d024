package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCommits_UpsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	commits := []*types.Commit{
		{SHA: "aaa", Repo: "acme/infra", AuthorEmail: "chad@example.com", Author: "Chad Walters", Message: "first", AuthoredAt: base, Additions: 10},
		{SHA: "bbb", Repo: "acme/infra", AuthorEmail: "ej@example.com", Author: "EJ", Message: "second", AuthoredAt: base.Add(time.Hour)},
		{SHA: "ccc", Repo: "acme/web", AuthorEmail: "ej@example.com", Author: "EJ", Message: "other repo", AuthoredAt: base},
	}
	for _, c := range commits {
		require.NoError(t, store.UpsertCommit(ctx, c))
	}

	got, err := store.ListCommits(ctx, "acme/infra", base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "aaa", got[0].SHA)
	assert.Equal(t, "bbb", got[1].SHA)
	assert.Equal(t, "Chad Walters", got[0].Author)
	assert.Equal(t, base, got[0].AuthoredAt)

	// Empty repo matches everything.
	all, err := store.ListCommits(ctx, "", base)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Upsert with the same SHA updates in place.
	commits[0].Author = "Renamed"
	require.NoError(t, store.UpsertCommit(ctx, commits[0]))
	got, err = store.ListCommits(ctx, "acme/infra", base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Renamed", got[0].Author)
}

func TestPullRequests_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	merged := created.Add(48 * time.Hour)
	pr := &types.PullRequest{
		Repo: "acme/infra", Number: 412,
		Title: "Add migration runner", AuthorHandle: "chad-walters", Author: "Chad Walters",
		Branch: "chad/eng-123-migrations", State: "merged",
		CreatedAt: created, MergedAt: &merged,
		Additions: 250, Deletions: 40, ChangedFiles: 9,
	}
	require.NoError(t, store.UpsertPullRequest(ctx, pr))

	got, err := store.ListPullRequests(ctx, "acme/infra", created)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 412, got[0].Number)
	assert.True(t, got[0].Merged())
	assert.Equal(t, merged, *got[0].MergedAt)
	assert.Empty(t, got[0].TicketKey)

	require.NoError(t, store.SetTicketKey(ctx, pr.ID(), "ENG-123"))
	got, err = store.ListPullRequests(ctx, "acme/infra", created)
	require.NoError(t, err)
	assert.Equal(t, "ENG-123", got[0].TicketKey)

	err = store.SetTicketKey(ctx, "acme/infra#999", "ENG-1")
	assert.Error(t, err)
}

func TestScores_ReviewFlow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	score := &types.Score{
		PRID: "acme/infra#412", Author: "Chad Walters", Value: 90,
		Category: "feature", Method: "rules",
		Breakdown: []types.Signal{{Name: "base", Points: 30}},
		ScoredAt:  time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertScore(ctx, score))

	unreviewed, err := store.ListScores(ctx, true)
	require.NoError(t, err)
	require.Len(t, unreviewed, 1)
	assert.Equal(t, 90.0, unreviewed[0].Value)
	require.Len(t, unreviewed[0].Breakdown, 1)
	assert.Equal(t, "base", unreviewed[0].Breakdown[0].Name)

	require.NoError(t, store.MarkReviewed(ctx, score.PRID, 75))

	unreviewed, err = store.ListScores(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, unreviewed)

	all, err := store.ListScores(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 75.0, all[0].Value)
	assert.True(t, all[0].Reviewed)

	assert.Error(t, store.MarkReviewed(ctx, "missing#1", 50))
}

func TestUsageRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertUsageRecord(ctx, &types.UsageRecord{
		ID: "rec-1", Tool: "claude", UserID: "chad@example.com", Developer: "Chad Walters",
		Model: "sonnet", InputTokens: 1200, OutputTokens: 300, OccurredAt: at,
	}))
	require.NoError(t, store.InsertUsageRecord(ctx, &types.UsageRecord{
		ID: "rec-2", Tool: "claude", UserID: "ej@example.com", Developer: "EJ",
		OccurredAt: at.Add(-time.Hour),
	}))

	got, err := store.ListUsageRecords(ctx, at.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rec-1", got[0].ID)
	assert.Equal(t, int64(1200), got[0].InputTokens)
}

func TestCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCommit(ctx, &types.Commit{
		SHA: "aaa", Repo: "acme/infra", AuthoredAt: time.Now(),
	}))

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["commits"])
	assert.Equal(t, 0, counts["pull_requests"])
	assert.Equal(t, 0, counts["scores"])
	assert.Equal(t, 0, counts["usage_records"])
}
