package hermod

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/types"
)

// recordSink captures inserted usage records.
type recordSink struct {
	mu      sync.Mutex
	records []*types.UsageRecord
}

func (r *recordSink) InsertUsageRecord(_ context.Context, rec *types.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *recordSink) UpsertCommit(context.Context, *types.Commit) error { return nil }
func (r *recordSink) ListCommits(context.Context, string, time.Time) ([]*types.Commit, error) {
	return nil, nil
}
func (r *recordSink) UpsertPullRequest(context.Context, *types.PullRequest) error { return nil }
func (r *recordSink) ListPullRequests(context.Context, string, time.Time) ([]*types.PullRequest, error) {
	return nil, nil
}
func (r *recordSink) SetTicketKey(context.Context, string, string) error     { return nil }
func (r *recordSink) UpsertScore(context.Context, *types.Score) error        { return nil }
func (r *recordSink) ListScores(context.Context, bool) ([]*types.Score, error) {
	return nil, nil
}
func (r *recordSink) MarkReviewed(context.Context, string, float64) error { return nil }
func (r *recordSink) ListUsageRecords(context.Context, time.Time) ([]*types.UsageRecord, error) {
	return nil, nil
}
func (r *recordSink) Counts(context.Context) (map[string]int, error) { return nil, nil }
func (r *recordSink) Close() error                                   { return nil }

func hermodResolver(t *testing.T) *identity.Resolver {
	t.Helper()
	r, err := identity.NewResolver([]identity.DeveloperRecord{
		{CanonicalName: "Chad Walters", GitEmails: []string{"chad@example.com"}},
	})
	require.NoError(t, err)
	return r
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hermod.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[sources]]
name = "claude-desktop"
tool = "claude"
path = "/var/log/claude/usage.jsonl"
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "claude", cfg.Sources[0].Tool)
}

func TestLoadConfig_NoSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hermod.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources")
}

func TestLoadConfig_IncompleteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hermod.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[sources]]
name = "broken"
tool = "claude"
`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCollector_Run(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "usage.jsonl")
	require.NoError(t, os.WriteFile(logPath, []byte(
		`{"user":"chad@example.com","model":"sonnet","input_tokens":1200,"output_tokens":300,"timestamp":"2026-04-01T08:00:00Z"}
{"user":"stranger@example.com","model":"haiku","input_tokens":10,"output_tokens":5,"timestamp":"2026-04-01T09:00:00Z"}
this line is not json
{"user":"","timestamp":"2026-04-01T10:00:00Z"}
`), 0644))

	sink := &recordSink{}
	collector := NewCollector(&CollectorConfig{
		Sources: []Source{{Name: "test", Tool: "claude", Path: logPath}},
	}, sink, hermodResolver(t))

	stats, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sources)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 2, stats.BadLines)
	assert.Equal(t, 2, stats.ByTool["claude"])

	require.Len(t, sink.records, 2)
	first := sink.records[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Chad Walters", first.Developer)
	assert.Equal(t, int64(1200), first.InputTokens)

	// Unknown users pass through unresolved.
	assert.Equal(t, "stranger@example.com", sink.records[1].Developer)
}

func TestCollector_MissingLogFile(t *testing.T) {
	collector := NewCollector(&CollectorConfig{
		Sources: []Source{{Name: "gone", Tool: "claude", Path: "/does/not/exist.jsonl"}},
	}, &recordSink{}, hermodResolver(t))

	_, err := collector.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
}
