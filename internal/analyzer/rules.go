// Package analyzer scores pull requests with rule-based heuristics:
// keyword/regex classification plus a fixed linear scoring formula over
// size, tests, risk, and ticket-linkage signals. The AI scorer in
// internal/ai builds on the same result shape and falls back to this
// package when the API is unavailable.
package analyzer

import (
	"regexp"
	"strings"
	"time"

	"github.com/steveyegge/northstar/internal/types"
)

// Category names produced by Classify.
const (
	CategoryFeature  = "feature"
	CategoryBugfix   = "bugfix"
	CategoryRefactor = "refactor"
	CategoryTest     = "test"
	CategoryDocs     = "docs"
	CategoryChore    = "chore"
)

// categoryPatterns are checked in order; the first match wins. Bugfix
// outranks feature so "fix: add regression guard" classifies as a fix.
var categoryPatterns = []struct {
	category string
	re       *regexp.Regexp
}{
	{CategoryBugfix, regexp.MustCompile(`(?i)\b(fix(es|ed)?|bug|regression|hotfix|patch)\b`)},
	{CategoryTest, regexp.MustCompile(`(?i)\b(test(s|ing)?|coverage|spec)\b`)},
	{CategoryDocs, regexp.MustCompile(`(?i)\b(docs?|documentation|readme|changelog)\b`)},
	{CategoryRefactor, regexp.MustCompile(`(?i)\b(refactor(s|ed|ing)?|cleanup|restructure|simplify)\b`)},
	{CategoryChore, regexp.MustCompile(`(?i)\b(chore|bump|upgrade|dependenc(y|ies)|version|ci|lint)\b`)},
	{CategoryFeature, regexp.MustCompile(`(?i)\b(add(s|ed)?|implement(s|ed)?|feature|support|introduce(s|d)?)\b`)},
}

var riskPattern = regexp.MustCompile(`(?i)\b(migration|schema|auth|security|payment|billing|prod(uction)?|rollback|breaking)\b`)

var testFilePattern = regexp.MustCompile(`(?i)\b\w+_test\.go\b|(^|/)tests?/`)

// Base score and per-signal weights of the linear formula. The result is
// clamped to [0, 100].
const (
	baseScore        = 30.0
	categoryFeature  = 20.0
	categoryBugfix   = 15.0
	categoryRefactor = 10.0
	categoryOther    = 5.0
	sizePerBucket    = 5.0 // per size bucket above trivial, max 4 buckets
	testSignal       = 10.0
	ticketSignal     = 10.0
	riskSignal       = 10.0
)

// Analyze produces a rule-based score for a pull request.
func Analyze(pr *types.PullRequest) *types.Score {
	category := Classify(pr.Title + "\n" + pr.Body)

	score := &types.Score{
		PRID:     pr.ID(),
		Author:   pr.Author,
		Category: category,
		Method:   "rules",
		ScoredAt: time.Now().UTC(),
	}

	add := func(name string, points float64, detail string) {
		score.Breakdown = append(score.Breakdown, types.Signal{Name: name, Points: points, Detail: detail})
		score.Value += points
	}

	add("base", baseScore, "")

	switch category {
	case CategoryFeature:
		add("category", categoryFeature, category)
	case CategoryBugfix:
		add("category", categoryBugfix, category)
	case CategoryRefactor:
		add("category", categoryRefactor, category)
	default:
		add("category", categoryOther, category)
	}

	if bucket := sizeBucket(pr.Additions + pr.Deletions); bucket > 0 {
		add("size", float64(bucket)*sizePerBucket, sizeBucketName(bucket))
	}

	if hasTestSignal(pr) {
		add("tests", testSignal, "touches test files or mentions tests")
	}

	if pr.TicketKey != "" {
		add("ticket", ticketSignal, pr.TicketKey)
	}

	if riskPattern.MatchString(pr.Title) || riskPattern.MatchString(pr.Body) {
		add("risk", riskSignal, "risk keyword present")
	}

	if score.Value > 100 {
		score.Value = 100
	}
	if score.Value < 0 {
		score.Value = 0
	}
	return score
}

// Classify returns the PR category for the given title/body text.
func Classify(text string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(text) {
			return p.category
		}
	}
	return CategoryChore
}

// sizeBucket maps total changed lines to a bucket 0-4.
func sizeBucket(lines int) int {
	switch {
	case lines < 10:
		return 0 // trivial
	case lines < 100:
		return 1
	case lines < 400:
		return 2
	case lines < 1000:
		return 3
	default:
		return 4
	}
}

func sizeBucketName(bucket int) string {
	return [...]string{"trivial", "small", "medium", "large", "huge"}[bucket]
}

func hasTestSignal(pr *types.PullRequest) bool {
	if testFilePattern.MatchString(pr.Body) {
		return true
	}
	lower := strings.ToLower(pr.Title + " " + pr.Body)
	return strings.Contains(lower, "add test") ||
		strings.Contains(lower, "adds tests") ||
		strings.Contains(lower, "with tests") ||
		strings.Contains(lower, "unit test")
}
