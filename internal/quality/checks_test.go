package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/types"
)

func snapResolver(t *testing.T) *identity.Resolver {
	t.Helper()
	r, err := identity.NewResolver([]identity.DeveloperRecord{
		{CanonicalName: "Chad Walters", GitEmails: []string{"chad@example.com"}},
		{CanonicalName: "EJ", GitEmails: []string{"ej@example.com"}},
	})
	require.NoError(t, err)
	return r
}

func TestUnresolvedIdentityCheck(t *testing.T) {
	now := time.Now()
	snap := &Snapshot{
		Resolver: snapResolver(t),
		Now:      now,
		Commits: []*types.Commit{
			{SHA: "a", Author: "Chad Walters", AuthoredAt: now},
			{SHA: "b", Author: "EJ", AuthoredAt: now},
			{SHA: "c", Author: "driveby@example.com", AuthoredAt: now},
			{SHA: "d", Author: "driveby@example.com", AuthoredAt: now},
		},
	}

	check := &UnresolvedIdentityCheck{MaxRate: 0.10}
	res := check.Run(snap)

	// 2/4 unresolved, over the 10% limit.
	assert.Equal(t, VerdictFail, res.Verdict)
	// One finding per distinct unresolved author, not per commit.
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "driveby@example.com", res.Findings[0].Subject)

	check.MaxRate = 0.60
	res = check.Run(snap)
	assert.Equal(t, VerdictWarn, res.Verdict)
}

func TestUnresolvedIdentityCheck_AllResolved(t *testing.T) {
	snap := &Snapshot{
		Resolver: snapResolver(t),
		Now:      time.Now(),
		Commits:  []*types.Commit{{SHA: "a", Author: "EJ", AuthoredAt: time.Now()}},
	}

	res := (&UnresolvedIdentityCheck{MaxRate: 0}).Run(snap)
	assert.Equal(t, VerdictPass, res.Verdict)
	assert.Empty(t, res.Findings)
}

func TestDuplicatePRCheck(t *testing.T) {
	snap := &Snapshot{
		PullRequests: []*types.PullRequest{
			{Repo: "acme/infra", Number: 1},
			{Repo: "acme/infra", Number: 2},
			{Repo: "acme/infra", Number: 1},
		},
	}

	res := (&DuplicatePRCheck{}).Run(snap)
	assert.Equal(t, VerdictFail, res.Verdict)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "acme/infra#1", res.Findings[0].Subject)

	res = (&DuplicatePRCheck{}).Run(&Snapshot{})
	assert.Equal(t, VerdictPass, res.Verdict)
}

func TestMissingFieldsCheck(t *testing.T) {
	now := time.Now()
	snap := &Snapshot{
		Commits: []*types.Commit{
			{SHA: "ok", AuthoredAt: now},
			{SHA: "", AuthoredAt: now}, // missing sha
		},
		PullRequests: []*types.PullRequest{
			{Repo: "r", Number: 1, Title: "ok", AuthorHandle: "x", CreatedAt: now},
			{Repo: "r", Number: 2, Title: "", AuthorHandle: "x", CreatedAt: now}, // missing title
		},
	}

	res := (&MissingFieldsCheck{}).Run(snap)
	assert.Equal(t, VerdictWarn, res.Verdict)
	assert.Len(t, res.Findings, 2)
}

func TestTicketMatchRateCheck(t *testing.T) {
	merged := time.Now()
	mk := func(n int, ticket string, isMerged bool) *types.PullRequest {
		pr := &types.PullRequest{Repo: "acme/infra", Number: n, TicketKey: ticket}
		if isMerged {
			pr.MergedAt = &merged
		}
		return pr
	}

	snap := &Snapshot{PullRequests: []*types.PullRequest{
		mk(1, "ENG-1", true),
		mk(2, "", true),
		mk(3, "", false), // open PRs don't count
	}}

	res := (&TicketMatchRateCheck{MinRate: 0.70}).Run(snap)
	assert.Equal(t, VerdictFail, res.Verdict) // 1/2 = 50%

	res = (&TicketMatchRateCheck{MinRate: 0.40}).Run(snap)
	assert.Equal(t, VerdictWarn, res.Verdict)

	res = (&TicketMatchRateCheck{MinRate: 0.40}).Run(&Snapshot{})
	assert.Equal(t, VerdictPass, res.Verdict)
}

func TestStalenessCheck(t *testing.T) {
	now := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		Now: now,
		Commits: []*types.Commit{
			{SHA: "old", AuthoredAt: now.Add(-30 * 24 * time.Hour)},
			{SHA: "new", AuthoredAt: now.Add(-2 * 24 * time.Hour)},
		},
	}

	res := (&StalenessCheck{Max: 14 * 24 * time.Hour}).Run(snap)
	assert.Equal(t, VerdictPass, res.Verdict)

	res = (&StalenessCheck{Max: 24 * time.Hour}).Run(snap)
	assert.Equal(t, VerdictFail, res.Verdict)

	res = (&StalenessCheck{Max: time.Hour}).Run(&Snapshot{Now: now})
	assert.Equal(t, VerdictWarn, res.Verdict)
}

func TestRunAll(t *testing.T) {
	snap := &Snapshot{
		Resolver: snapResolver(t),
		Now:      time.Now(),
		Commits:  []*types.Commit{{SHA: "a", Author: "EJ", AuthoredAt: time.Now()}},
	}

	results := RunAll(DefaultChecks(DefaultThresholds()), snap)
	require.Len(t, results, 5)

	names := make(map[string]bool)
	for _, r := range results {
		names[r.Check] = true
	}
	assert.True(t, names["unresolved_identity"])
	assert.True(t, names["stale_extraction"])
}
