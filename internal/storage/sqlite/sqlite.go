// Package sqlite implements the Storage interface on SQLite via the
// ncruces wasm driver (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/northstar/internal/storage"
	"github.com/steveyegge/northstar/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS commits (
	sha           TEXT PRIMARY KEY,
	repo          TEXT NOT NULL,
	author_name   TEXT NOT NULL DEFAULT '',
	author_email  TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL DEFAULT '',
	authored_at   TEXT NOT NULL,
	additions     INTEGER NOT NULL DEFAULT 0,
	deletions     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_commits_repo_time ON commits(repo, authored_at);

CREATE TABLE IF NOT EXISTS pull_requests (
	id            TEXT PRIMARY KEY,
	repo          TEXT NOT NULL,
	number        INTEGER NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL DEFAULT '',
	author_handle TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	branch        TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	merged_at     TEXT,
	additions     INTEGER NOT NULL DEFAULT 0,
	deletions     INTEGER NOT NULL DEFAULT 0,
	changed_files INTEGER NOT NULL DEFAULT 0,
	ticket_key    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_prs_repo_time ON pull_requests(repo, created_at);

CREATE TABLE IF NOT EXISTS scores (
	pr_id     TEXT PRIMARY KEY,
	author    TEXT NOT NULL DEFAULT '',
	value     REAL NOT NULL,
	category  TEXT NOT NULL DEFAULT '',
	breakdown TEXT NOT NULL DEFAULT '[]',
	method    TEXT NOT NULL DEFAULT 'rules',
	reasoning TEXT NOT NULL DEFAULT '',
	reviewed  INTEGER NOT NULL DEFAULT 0,
	scored_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_records (
	id            TEXT PRIMARY KEY,
	tool          TEXT NOT NULL,
	user_id       TEXT NOT NULL DEFAULT '',
	developer     TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	occurred_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_time ON usage_records(occurred_at);
`

// Store implements storage.Storage on SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// New opens (creating if needed) the metrics database at path.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertCommit inserts or replaces a commit row keyed by SHA.
func (s *Store) UpsertCommit(ctx context.Context, c *types.Commit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commits (sha, repo, author_name, author_email, author, message, authored_at, additions, deletions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sha) DO UPDATE SET
			author = excluded.author,
			message = excluded.message,
			additions = excluded.additions,
			deletions = excluded.deletions`,
		c.SHA, c.Repo, c.AuthorName, c.AuthorEmail, c.Author, c.Message,
		c.AuthoredAt.UTC().Format(time.RFC3339), c.Additions, c.Deletions)
	if err != nil {
		return fmt.Errorf("upserting commit %s: %w", c.SHA, err)
	}
	return nil
}

// ListCommits returns commits for a repo authored at or after since,
// oldest first. An empty repo matches all repos.
func (s *Store) ListCommits(ctx context.Context, repo string, since time.Time) ([]*types.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sha, repo, author_name, author_email, author, message, authored_at, additions, deletions
		FROM commits
		WHERE (? = '' OR repo = ?) AND authored_at >= ?
		ORDER BY authored_at`,
		repo, repo, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	defer rows.Close()

	var out []*types.Commit
	for rows.Next() {
		var c types.Commit
		var authoredAt string
		if err := rows.Scan(&c.SHA, &c.Repo, &c.AuthorName, &c.AuthorEmail, &c.Author,
			&c.Message, &authoredAt, &c.Additions, &c.Deletions); err != nil {
			return nil, fmt.Errorf("scanning commit: %w", err)
		}
		c.AuthoredAt, _ = time.Parse(time.RFC3339, authoredAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpsertPullRequest inserts or replaces a PR row keyed by repo#number.
func (s *Store) UpsertPullRequest(ctx context.Context, pr *types.PullRequest) error {
	var mergedAt any
	if pr.MergedAt != nil {
		mergedAt = pr.MergedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pull_requests (id, repo, number, title, body, author_handle, author, branch, state,
			created_at, merged_at, additions, deletions, changed_files, ticket_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			author = excluded.author,
			state = excluded.state,
			merged_at = excluded.merged_at,
			additions = excluded.additions,
			deletions = excluded.deletions,
			changed_files = excluded.changed_files`,
		pr.ID(), pr.Repo, pr.Number, pr.Title, pr.Body, pr.AuthorHandle, pr.Author,
		pr.Branch, pr.State, pr.CreatedAt.UTC().Format(time.RFC3339), mergedAt,
		pr.Additions, pr.Deletions, pr.ChangedFiles, pr.TicketKey)
	if err != nil {
		return fmt.Errorf("upserting PR %s: %w", pr.ID(), err)
	}
	return nil
}

// ListPullRequests returns PRs for a repo created at or after since,
// oldest first. An empty repo matches all repos.
func (s *Store) ListPullRequests(ctx context.Context, repo string, since time.Time) ([]*types.PullRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo, number, title, body, author_handle, author, branch, state,
			created_at, merged_at, additions, deletions, changed_files, ticket_key
		FROM pull_requests
		WHERE (? = '' OR repo = ?) AND created_at >= ?
		ORDER BY created_at`,
		repo, repo, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing pull requests: %w", err)
	}
	defer rows.Close()

	var out []*types.PullRequest
	for rows.Next() {
		var pr types.PullRequest
		var id, createdAt string
		var mergedAt sql.NullString
		if err := rows.Scan(&id, &pr.Repo, &pr.Number, &pr.Title, &pr.Body, &pr.AuthorHandle,
			&pr.Author, &pr.Branch, &pr.State, &createdAt, &mergedAt,
			&pr.Additions, &pr.Deletions, &pr.ChangedFiles, &pr.TicketKey); err != nil {
			return nil, fmt.Errorf("scanning pull request: %w", err)
		}
		pr.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if mergedAt.Valid {
			t, err := time.Parse(time.RFC3339, mergedAt.String)
			if err == nil {
				pr.MergedAt = &t
			}
		}
		out = append(out, &pr)
	}
	return out, rows.Err()
}

// SetTicketKey records the matched Linear ticket for a PR.
func (s *Store) SetTicketKey(ctx context.Context, prID, ticketKey string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pull_requests SET ticket_key = ? WHERE id = ?`, ticketKey, prID)
	if err != nil {
		return fmt.Errorf("setting ticket key for %s: %w", prID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no pull request %s", prID)
	}
	return nil
}

// UpsertScore inserts or replaces the score for a PR.
func (s *Store) UpsertScore(ctx context.Context, score *types.Score) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("marshaling breakdown: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scores (pr_id, author, value, category, breakdown, method, reasoning, reviewed, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pr_id) DO UPDATE SET
			author = excluded.author,
			value = excluded.value,
			category = excluded.category,
			breakdown = excluded.breakdown,
			method = excluded.method,
			reasoning = excluded.reasoning,
			reviewed = excluded.reviewed,
			scored_at = excluded.scored_at`,
		score.PRID, score.Author, score.Value, score.Category, string(breakdown),
		score.Method, score.Reasoning, boolInt(score.Reviewed),
		score.ScoredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting score for %s: %w", score.PRID, err)
	}
	return nil
}

// ListScores returns all scores, optionally only those not yet reviewed.
func (s *Store) ListScores(ctx context.Context, onlyUnreviewed bool) ([]*types.Score, error) {
	query := `SELECT pr_id, author, value, category, breakdown, method, reasoning, reviewed, scored_at
		FROM scores`
	if onlyUnreviewed {
		query += ` WHERE reviewed = 0`
	}
	query += ` ORDER BY pr_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	defer rows.Close()

	var out []*types.Score
	for rows.Next() {
		var sc types.Score
		var breakdown, scoredAt string
		var reviewed int
		if err := rows.Scan(&sc.PRID, &sc.Author, &sc.Value, &sc.Category, &breakdown,
			&sc.Method, &sc.Reasoning, &reviewed, &scoredAt); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdown), &sc.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshaling breakdown for %s: %w", sc.PRID, err)
		}
		sc.Reviewed = reviewed != 0
		sc.ScoredAt, _ = time.Parse(time.RFC3339, scoredAt)
		out = append(out, &sc)
	}
	return out, rows.Err()
}

// MarkReviewed accepts (or overrides) a score and flags it reviewed.
func (s *Store) MarkReviewed(ctx context.Context, prID string, value float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scores SET value = ?, reviewed = 1 WHERE pr_id = ?`, value, prID)
	if err != nil {
		return fmt.Errorf("marking %s reviewed: %w", prID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no score for %s", prID)
	}
	return nil
}

// InsertUsageRecord stores one Hermod usage record.
func (s *Store) InsertUsageRecord(ctx context.Context, r *types.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (id, tool, user_id, developer, model, input_tokens, output_tokens, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Tool, r.UserID, r.Developer, r.Model, r.InputTokens, r.OutputTokens,
		r.OccurredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting usage record %s: %w", r.ID, err)
	}
	return nil
}

// ListUsageRecords returns usage records occurring at or after since,
// oldest first.
func (s *Store) ListUsageRecords(ctx context.Context, since time.Time) ([]*types.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tool, user_id, developer, model, input_tokens, output_tokens, occurred_at
		FROM usage_records
		WHERE occurred_at >= ?
		ORDER BY occurred_at`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing usage records: %w", err)
	}
	defer rows.Close()

	var out []*types.UsageRecord
	for rows.Next() {
		var r types.UsageRecord
		var occurredAt string
		if err := rows.Scan(&r.ID, &r.Tool, &r.UserID, &r.Developer, &r.Model,
			&r.InputTokens, &r.OutputTokens, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		r.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Counts returns row counts per table for diagnostics.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, table := range []string{"commits", "pull_requests", "scores", "usage_records"} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
