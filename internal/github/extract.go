package github

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/storage"
)

// Extractor pulls commits and PRs for a set of repos and writes them to
// the store with author identities resolved.
type Extractor struct {
	client   *Client
	store    storage.Storage
	resolver *identity.Resolver

	// MaxConcurrentRepos bounds the repo fan-out. The shared rate
	// limiter is the real throttle; this just keeps goroutine count sane.
	MaxConcurrentRepos int
}

// NewExtractor creates an extractor.
func NewExtractor(client *Client, store storage.Storage, resolver *identity.Resolver) *Extractor {
	return &Extractor{
		client:             client,
		store:              store,
		resolver:           resolver,
		MaxConcurrentRepos: 4,
	}
}

// Result summarizes one extraction run.
type Result struct {
	RunID        string
	Repos        int
	Commits      int
	PullRequests int
	Elapsed      time.Duration
}

// Run extracts all repos concurrently. Author identifiers that the
// resolver doesn't know pass through unresolved; they still land in the
// store so the quality checks can report on them.
func (e *Extractor) Run(ctx context.Context, runID string, repos []string, since time.Time) (*Result, error) {
	start := time.Now()

	var commitCount, prCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.MaxConcurrentRepos)

	for _, repo := range repos {
		g.Go(func() error {
			commits, err := e.client.ListCommits(ctx, repo, since)
			if err != nil {
				return err
			}
			for _, c := range commits {
				c.Author = e.resolver.Resolve(c.AuthorEmail, identity.SourceGitEmail)
				if c.Author == c.AuthorEmail {
					// Email unknown; fall back to the authorship name.
					c.Author = e.resolver.Resolve(c.AuthorName, identity.SourceGitName)
				}
				if err := e.store.UpsertCommit(ctx, c); err != nil {
					return err
				}
			}
			commitCount.Add(int64(len(commits)))

			prs, err := e.client.ListPullRequests(ctx, repo, since)
			if err != nil {
				return err
			}
			for _, pr := range prs {
				pr.Author = e.resolver.Resolve(pr.AuthorHandle, identity.SourceGithubHandle)
				if err := e.store.UpsertPullRequest(ctx, pr); err != nil {
					return err
				}
			}
			prCount.Add(int64(len(prs)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction run %s: %w", runID, err)
	}

	return &Result{
		RunID:        runID,
		Repos:        len(repos),
		Commits:      int(commitCount.Load()),
		PullRequests: int(prCount.Load()),
		Elapsed:      time.Since(start),
	}, nil
}
