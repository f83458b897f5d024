// Package hermod collects AI-tool usage records from local JSONL logs
// and normalizes them into the metrics store. Each configured source is
// one tool's log file; records are attributed to developers through the
// identity resolver.
package hermod

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/steveyegge/northstar/internal/identity"
	"github.com/steveyegge/northstar/internal/storage"
	"github.com/steveyegge/northstar/internal/types"
)

// Source is one usage log to collect.
type Source struct {
	// Name labels the source in reports.
	Name string `toml:"name"`
	// Tool is the AI tool the log belongs to, e.g. "claude".
	Tool string `toml:"tool"`
	// Path is the JSONL log file.
	Path string `toml:"path"`
}

// CollectorConfig is the Hermod configuration, loaded from TOML.
type CollectorConfig struct {
	Sources []Source `toml:"sources"`
}

// LoadConfig loads Hermod configuration from a TOML file.
func LoadConfig(path string) (*CollectorConfig, error) {
	var cfg CollectorConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading hermod config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("hermod config %s declares no sources", path)
	}
	for i, s := range cfg.Sources {
		if s.Tool == "" || s.Path == "" {
			return nil, fmt.Errorf("hermod source %d: tool and path are required", i)
		}
	}
	return &cfg, nil
}

// logLine is the shape of one JSONL usage entry.
type logLine struct {
	User         string    `json:"user"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	Timestamp    time.Time `json:"timestamp"`
}

// Collector reads configured sources and stores normalized records.
type Collector struct {
	cfg      *CollectorConfig
	store    storage.Storage
	resolver *identity.Resolver
}

// NewCollector creates a collector.
func NewCollector(cfg *CollectorConfig, store storage.Storage, resolver *identity.Resolver) *Collector {
	return &Collector{cfg: cfg, store: store, resolver: resolver}
}

// Stats summarizes one collection run.
type Stats struct {
	Sources  int
	Records  int
	BadLines int
	ByTool   map[string]int
}

// Run collects every configured source. Malformed lines are counted and
// skipped, not fatal: a half-written log line must not sink a whole run.
func (c *Collector) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByTool: make(map[string]int)}

	for _, source := range c.cfg.Sources {
		n, bad, err := c.collectSource(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("collecting %s: %w", source.Name, err)
		}
		stats.Sources++
		stats.Records += n
		stats.BadLines += bad
		stats.ByTool[source.Tool] += n
	}
	return stats, nil
}

func (c *Collector) collectSource(ctx context.Context, source Source) (records, badLines int, err error) {
	f, err := os.Open(source.Path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry logLine
		if err := json.Unmarshal(line, &entry); err != nil {
			badLines++
			continue
		}
		if entry.User == "" || entry.Timestamp.IsZero() {
			badLines++
			continue
		}

		record := &types.UsageRecord{
			ID:           uuid.NewString(),
			Tool:         source.Tool,
			UserID:       entry.User,
			Developer:    c.resolver.Resolve(entry.User, identity.SourceAuto),
			Model:        entry.Model,
			InputTokens:  entry.InputTokens,
			OutputTokens: entry.OutputTokens,
			OccurredAt:   entry.Timestamp,
		}
		if err := c.store.InsertUsageRecord(ctx, record); err != nil {
			return records, badLines, err
		}
		records++
	}
	return records, badLines, scanner.Err()
}
