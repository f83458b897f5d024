// Package quality runs data-quality checks over the collected metrics
// artifacts. Checks collect facts and compare them to configured
// thresholds; they never mutate the data they inspect.
package quality

import (
	"fmt"
	"time"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/types"
)

// Verdict of a single check.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictWarn Verdict = "warn"
	VerdictFail Verdict = "fail"
)

// Finding is one fact a check surfaced.
type Finding struct {
	Check   string `json:"check"`
	Subject string `json:"subject"` // the offending row/identifier
	Detail  string `json:"detail"`
}

// Result is the outcome of one check.
type Result struct {
	Check    string    `json:"check"`
	Verdict  Verdict   `json:"verdict"`
	Summary  string    `json:"summary"`
	Findings []Finding `json:"findings,omitempty"`
}

// Snapshot is the dataset a check run inspects.
type Snapshot struct {
	Commits      []*types.Commit
	PullRequests []*types.PullRequest
	Scores       []*types.Score
	Resolver     *identity.Resolver
	Now          time.Time
}

// Check inspects a snapshot and reports a result.
type Check interface {
	Name() string
	Run(snap *Snapshot) Result
}

// Thresholds configures the built-in checks. Rates are fractions in
// [0, 1].
type Thresholds struct {
	// MaxUnresolvedRate is the tolerated fraction of commits whose
	// author never resolved to a canonical name. Default 0.10.
	MaxUnresolvedRate float64

	// MinTicketMatchRate is the required fraction of merged PRs carrying
	// a ticket key. Default 0.70.
	MinTicketMatchRate float64

	// MaxStaleness is how old the newest commit may be before the
	// dataset counts as stale. Default 14 days.
	MaxStaleness time.Duration
}

// DefaultThresholds returns the default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxUnresolvedRate:  0.10,
		MinTicketMatchRate: 0.70,
		MaxStaleness:       14 * 24 * time.Hour,
	}
}

// DefaultChecks returns every built-in check.
func DefaultChecks(t Thresholds) []Check {
	return []Check{
		&UnresolvedIdentityCheck{MaxRate: t.MaxUnresolvedRate},
		&DuplicatePRCheck{},
		&MissingFieldsCheck{},
		&TicketMatchRateCheck{MinRate: t.MinTicketMatchRate},
		&StalenessCheck{Max: t.MaxStaleness},
	}
}

// RunAll runs every check against the snapshot.
func RunAll(checks []Check, snap *Snapshot) []Result {
	out := make([]Result, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.Run(snap))
	}
	return out
}

// UnresolvedIdentityCheck flags commit authors that never resolved to a
// canonical name. A high rate means the roster is missing people and
// per-developer aggregates are silently splitting.
type UnresolvedIdentityCheck struct {
	MaxRate float64
}

func (c *UnresolvedIdentityCheck) Name() string { return "unresolved_identity" }

func (c *UnresolvedIdentityCheck) Run(snap *Snapshot) Result {
	res := Result{Check: c.Name(), Verdict: VerdictPass}
	if len(snap.Commits) == 0 {
		res.Summary = "no commits to check"
		return res
	}

	unresolved := 0
	seen := make(map[string]bool)
	for _, commit := range snap.Commits {
		if snap.Resolver.IsCanonical(commit.Author) {
			continue
		}
		unresolved++
		if !seen[commit.Author] {
			seen[commit.Author] = true
			res.Findings = append(res.Findings, Finding{
				Check:   c.Name(),
				Subject: commit.Author,
				Detail:  fmt.Sprintf("author %q (e.g. commit %s) has no roster entry", commit.Author, commit.SHA),
			})
		}
	}

	rate := float64(unresolved) / float64(len(snap.Commits))
	res.Summary = fmt.Sprintf("%d/%d commits (%.0f%%) have unresolved authors",
		unresolved, len(snap.Commits), rate*100)
	if rate > c.MaxRate {
		res.Verdict = VerdictFail
	} else if unresolved > 0 {
		res.Verdict = VerdictWarn
	}
	return res
}

// DuplicatePRCheck flags repeated (repo, number) rows, which indicate an
// extraction bug upstream.
type DuplicatePRCheck struct{}

func (c *DuplicatePRCheck) Name() string { return "duplicate_prs" }

func (c *DuplicatePRCheck) Run(snap *Snapshot) Result {
	res := Result{Check: c.Name(), Verdict: VerdictPass}

	seen := make(map[string]bool)
	for _, pr := range snap.PullRequests {
		id := pr.ID()
		if seen[id] {
			res.Findings = append(res.Findings, Finding{
				Check: c.Name(), Subject: id, Detail: "pull request appears more than once",
			})
		}
		seen[id] = true
	}

	if len(res.Findings) > 0 {
		res.Verdict = VerdictFail
	}
	res.Summary = fmt.Sprintf("%d duplicate rows among %d pull requests",
		len(res.Findings), len(snap.PullRequests))
	return res
}

// MissingFieldsCheck flags rows missing required fields.
type MissingFieldsCheck struct{}

func (c *MissingFieldsCheck) Name() string { return "missing_fields" }

func (c *MissingFieldsCheck) Run(snap *Snapshot) Result {
	res := Result{Check: c.Name(), Verdict: VerdictPass}

	for _, commit := range snap.Commits {
		if commit.SHA == "" || commit.AuthoredAt.IsZero() {
			res.Findings = append(res.Findings, Finding{
				Check: c.Name(), Subject: commit.SHA,
				Detail: "commit missing sha or authored_at",
			})
		}
	}
	for _, pr := range snap.PullRequests {
		if pr.Title == "" || pr.AuthorHandle == "" || pr.CreatedAt.IsZero() {
			res.Findings = append(res.Findings, Finding{
				Check: c.Name(), Subject: pr.ID(),
				Detail: "pull request missing title, author_handle, or created_at",
			})
		}
	}

	if len(res.Findings) > 0 {
		res.Verdict = VerdictWarn
	}
	res.Summary = fmt.Sprintf("%d rows with missing required fields", len(res.Findings))
	return res
}

// TicketMatchRateCheck verifies enough merged PRs link to a ticket.
type TicketMatchRateCheck struct {
	MinRate float64
}

func (c *TicketMatchRateCheck) Name() string { return "ticket_match_rate" }

func (c *TicketMatchRateCheck) Run(snap *Snapshot) Result {
	res := Result{Check: c.Name(), Verdict: VerdictPass}

	merged, matched := 0, 0
	for _, pr := range snap.PullRequests {
		if !pr.Merged() {
			continue
		}
		merged++
		if pr.TicketKey != "" {
			matched++
		} else {
			res.Findings = append(res.Findings, Finding{
				Check: c.Name(), Subject: pr.ID(), Detail: "merged without a ticket key",
			})
		}
	}
	if merged == 0 {
		res.Summary = "no merged PRs to check"
		return res
	}

	rate := float64(matched) / float64(merged)
	res.Summary = fmt.Sprintf("%d/%d merged PRs (%.0f%%) matched to tickets", matched, merged, rate*100)
	if rate < c.MinRate {
		res.Verdict = VerdictFail
	} else if matched < merged {
		res.Verdict = VerdictWarn
	}
	return res
}

// StalenessCheck verifies the dataset has been extracted recently.
type StalenessCheck struct {
	Max time.Duration
}

func (c *StalenessCheck) Name() string { return "stale_extraction" }

func (c *StalenessCheck) Run(snap *Snapshot) Result {
	res := Result{Check: c.Name(), Verdict: VerdictPass}
	if len(snap.Commits) == 0 {
		res.Verdict = VerdictWarn
		res.Summary = "no commits extracted yet"
		return res
	}

	var newest time.Time
	for _, commit := range snap.Commits {
		if commit.AuthoredAt.After(newest) {
			newest = commit.AuthoredAt
		}
	}

	age := snap.Now.Sub(newest)
	res.Summary = fmt.Sprintf("newest commit is %s old", age.Round(time.Hour))
	if age > c.Max {
		res.Verdict = VerdictFail
		res.Findings = append(res.Findings, Finding{
			Check: c.Name(), Subject: "commits",
			Detail: fmt.Sprintf("newest commit %s is older than %s", newest.Format(time.RFC3339), c.Max),
		})
	}
	return res
}
