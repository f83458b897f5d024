// Package types defines the shared data model for the North Star metrics
// pipeline: raw commits and pull requests extracted from GitHub, ticket
// matches against Linear, PR scores, and AI-usage records.
package types

import (
	"fmt"
	"time"
)

// Commit is one git commit as extracted from the GitHub API.
type Commit struct {
	SHA         string    `json:"sha"`
	Repo        string    `json:"repo"`
	AuthorName  string    `json:"author_name"`  // raw git authorship name
	AuthorEmail string    `json:"author_email"` // raw git authorship email
	Author      string    `json:"author"`       // canonical name after identity resolution
	Message     string    `json:"message"`
	AuthoredAt  time.Time `json:"authored_at"`
	Additions   int       `json:"additions"`
	Deletions   int       `json:"deletions"`
}

// PullRequest is one pull request as extracted from the GitHub API.
type PullRequest struct {
	Repo         string     `json:"repo"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body,omitempty"`
	AuthorHandle string     `json:"author_handle"` // raw GitHub login
	Author       string     `json:"author"`        // canonical name after identity resolution
	Branch       string     `json:"branch"`
	State        string     `json:"state"` // "open", "closed", "merged"
	CreatedAt    time.Time  `json:"created_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	TicketKey    string     `json:"ticket_key,omitempty"` // matched Linear key, empty when unmatched
}

// ID returns the stable identifier for a pull request, e.g. "infra#412".
func (pr *PullRequest) ID() string {
	return fmt.Sprintf("%s#%d", pr.Repo, pr.Number)
}

// Merged reports whether the PR has been merged.
func (pr *PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// Ticket is a Linear issue referenced from commits or PRs.
type Ticket struct {
	Key       string `json:"key"` // e.g. "ENG-123"
	Title     string `json:"title,omitempty"`
	Assignee  string `json:"assignee,omitempty"` // raw Linear display name
	State     string `json:"state,omitempty"`
	Estimate  int    `json:"estimate,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// Score is the scoring result for one pull request.
type Score struct {
	PRID      string    `json:"pr_id"` // PullRequest.ID()
	Author    string    `json:"author"`
	Value     float64   `json:"value"`    // 0-100 impact score
	Category  string    `json:"category"` // feature, bugfix, refactor, test, docs, chore
	Breakdown []Signal  `json:"breakdown,omitempty"`
	Method    string    `json:"method"` // "rules" or "ai"
	Reasoning string    `json:"reasoning,omitempty"`
	Reviewed  bool      `json:"reviewed"` // true once a human accepted or overrode it
	ScoredAt  time.Time `json:"scored_at"`
}

// Signal is one contribution to a score with its weight applied.
type Signal struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

// UsageRecord is one normalized AI-usage event collected by Hermod.
type UsageRecord struct {
	ID           string    `json:"id"` // uuid
	Tool         string    `json:"tool"`
	UserID       string    `json:"user_id"` // raw identifier from the usage log
	Developer    string    `json:"developer"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// MetricPoint is one bucketed observation in a metric series.
type MetricPoint struct {
	Label string  `json:"label"` // e.g. ISO week "2026-W08"
	Value float64 `json:"value"`
}

// Series is a named, ordered sequence of metric points, typically one per
// developer.
type Series struct {
	Name   string        `json:"name"`
	Color  string        `json:"color,omitempty"`
	Points []MetricPoint `json:"points"`
}
