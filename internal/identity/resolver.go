// Package identity unifies developer identity across data sources.
//
// The same person shows up under different identifiers depending on where
// the data came from: git commit authorship (free-text name + email), GitHub
// (login handle), and Linear (display name). The Resolver maps all of them
// to one canonical name so that downstream aggregation and charting count
// each person exactly once. Color assignment lives in colors.go.
package identity

import (
	"fmt"
	"sort"
	"strings"
)

// Source identifies which system produced a raw identifier string.
type Source string

const (
	SourceGitName      Source = "git_name"
	SourceGitEmail     Source = "git_email"
	SourceGithubHandle Source = "github_handle"
	SourceLinearName   Source = "linear_name"

	// SourceAuto probes every index in priority order:
	// git name, git email, github handle, linear name.
	SourceAuto Source = "auto"
)

// DeveloperRecord declares one person and every identifier they are known
// by. CanonicalName is required; the identifier lists are optional.
type DeveloperRecord struct {
	CanonicalName string   `json:"canonical_name"`
	GitNames      []string `json:"git_names,omitempty"`
	GitEmails     []string `json:"git_emails,omitempty"`
	GithubHandles []string `json:"github_handles,omitempty"`
	LinearNames   []string `json:"linear_names,omitempty"`
}

// ConfigurationError indicates the developer roster was missing or
// malformed. It is fatal: no partial or default roster is synthesized.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("identity configuration: %s", e.Reason)
}

// Resolver maps raw identifiers to canonical developer names.
//
// All four indices are built once at construction and never mutated, so a
// Resolver is safe for concurrent reads without locking. To pick up a
// changed roster, construct a new Resolver and swap the reference.
type Resolver struct {
	byGitName      map[string]string
	byGitEmail     map[string]string
	byGithubHandle map[string]string
	byLinearName   map[string]string

	canonical map[string]bool
	roster    []string // canonical names, sorted
}

// NewResolver builds a Resolver from a developer roster.
//
// Identifiers are indexed lower-cased; lookups are case-insensitive. If two
// records claim the same (identifier, source) pair the later record wins —
// that is a roster mistake, not a runtime condition, and is not detected
// here.
func NewResolver(records []DeveloperRecord) (*Resolver, error) {
	if len(records) == 0 {
		return nil, &ConfigurationError{Reason: "developer roster is empty"}
	}

	r := &Resolver{
		byGitName:      make(map[string]string),
		byGitEmail:     make(map[string]string),
		byGithubHandle: make(map[string]string),
		byLinearName:   make(map[string]string),
		canonical:      make(map[string]bool),
	}

	for i, rec := range records {
		if rec.CanonicalName == "" {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("developer record %d has no canonical_name", i),
			}
		}
		r.canonical[rec.CanonicalName] = true
		index(r.byGitName, rec.GitNames, rec.CanonicalName)
		index(r.byGitEmail, rec.GitEmails, rec.CanonicalName)
		index(r.byGithubHandle, rec.GithubHandles, rec.CanonicalName)
		index(r.byLinearName, rec.LinearNames, rec.CanonicalName)
	}

	for name := range r.canonical {
		r.roster = append(r.roster, name)
	}
	sort.Strings(r.roster)

	return r, nil
}

func index(m map[string]string, identifiers []string, canonical string) {
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		m[strings.ToLower(id)] = canonical
	}
}

// Resolve maps a raw identifier to its canonical developer name.
//
// An empty identifier passes through unchanged. An identifier with no
// mapping also passes through unchanged — unmapped identifiers must still
// flow into downstream reporting, just unresolved, so an incomplete roster
// degrades gracefully instead of breaking the pipeline.
func (r *Resolver) Resolve(identifier string, source Source) string {
	if identifier == "" {
		return identifier
	}

	key := strings.ToLower(identifier)

	switch source {
	case SourceGitName:
		if name, ok := r.byGitName[key]; ok {
			return name
		}
	case SourceGitEmail:
		if name, ok := r.byGitEmail[key]; ok {
			return name
		}
	case SourceGithubHandle:
		if name, ok := r.byGithubHandle[key]; ok {
			return name
		}
	case SourceLinearName:
		if name, ok := r.byLinearName[key]; ok {
			return name
		}
	case SourceAuto:
		for _, m := range []map[string]string{r.byGitName, r.byGitEmail, r.byGithubHandle, r.byLinearName} {
			if name, ok := m[key]; ok {
				return name
			}
		}
	}

	return identifier
}

// IsCanonical reports whether name is one of the configured canonical
// names. Callers that need a known-vs-unknown split (legend ordering, the
// unresolved-identity quality check) use this; Resolve itself never makes
// the distinction.
func (r *Resolver) IsCanonical(name string) bool {
	return r.canonical[name]
}

// Roster returns the configured canonical names in sorted order.
func (r *Resolver) Roster() []string {
	out := make([]string, len(r.roster))
	copy(out, r.roster)
	return out
}
