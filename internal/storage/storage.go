// Package storage defines the metrics store interface and the exclusive
// lock protocol for write runs. The sqlite subpackage is the only backend.
package storage

import (
	"context"
	"time"

	"github.com/steveyegge/northstar/internal/types"
)

// Storage is the persistence interface for the metrics pipeline.
type Storage interface {
	// Commits
	UpsertCommit(ctx context.Context, c *types.Commit) error
	ListCommits(ctx context.Context, repo string, since time.Time) ([]*types.Commit, error)

	// Pull requests
	UpsertPullRequest(ctx context.Context, pr *types.PullRequest) error
	ListPullRequests(ctx context.Context, repo string, since time.Time) ([]*types.PullRequest, error)
	SetTicketKey(ctx context.Context, prID, ticketKey string) error

	// Scores
	UpsertScore(ctx context.Context, s *types.Score) error
	ListScores(ctx context.Context, onlyUnreviewed bool) ([]*types.Score, error)
	MarkReviewed(ctx context.Context, prID string, value float64) error

	// AI usage (Hermod)
	InsertUsageRecord(ctx context.Context, r *types.UsageRecord) error
	ListUsageRecords(ctx context.Context, since time.Time) ([]*types.UsageRecord, error)

	// Counts returns row counts per table for diagnostics.
	Counts(ctx context.Context) (map[string]int, error)

	Close() error
}
