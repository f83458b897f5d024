// Package ai provides LLM-assisted pull request scoring. The rule-based
// analyzer remains the source of truth when the API is unavailable: every
// AI score carries the rule score as its fallback.
package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"

	"github.com/steveyegge/northstar/internal/analyzer"
	"github.com/steveyegge/northstar/internal/breaker"
	"github.com/steveyegge/northstar/internal/types"
)

// Model constants. Scoring a PR is a simple classification task, so the
// default is the cost-efficient model; override per deployment with
// NS_MODEL_DEFAULT.
const (
	ModelSonnet = "claude-sonnet-4-5-20250929"
	ModelHaiku  = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the scoring model, honoring NS_MODEL_DEFAULT.
func GetDefaultModel() string {
	if model := os.Getenv("NS_MODEL_DEFAULT"); model != "" {
		return model
	}
	return ModelHaiku
}

// Scorer scores pull requests with the Anthropic API.
type Scorer struct {
	client  *anthropic.Client
	model   string
	retry   RetryConfig
	breaker *breaker.Breaker
	sem     *semaphore.Weighted
}

// Config holds scorer configuration.
type Config struct {
	APIKey  string // if empty, read from ANTHROPIC_API_KEY
	Model   string // default: GetDefaultModel()
	Retry   RetryConfig
	Breaker *breaker.Breaker // optional; nil disables short-circuiting
}

// NewScorer creates an AI scorer.
func NewScorer(cfg *Config) (*Scorer, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Scorer{
		client:  &client,
		model:   model,
		retry:   retry,
		breaker: cfg.Breaker,
		sem:     semaphore.NewWeighted(int64(retry.MaxConcurrentCalls)),
	}, nil
}

// scoreResponse is the JSON shape the model is asked to produce.
type scoreResponse struct {
	Score     float64 `json:"score"`
	Category  string  `json:"category"`
	Reasoning string  `json:"reasoning"`
}

// ScorePR scores one pull request. On any API failure the rule-based
// score is returned instead, so scoring runs always complete.
func (s *Scorer) ScorePR(ctx context.Context, pr *types.PullRequest) (*types.Score, error) {
	ruleScore := analyzer.Analyze(pr)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	prompt := buildScorePrompt(pr, ruleScore)

	var response *anthropic.Message
	err := s.retryWithBackoff(ctx, func(attemptCtx context.Context) error {
		resp, apiErr := s.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(s.model),
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		// Graceful degradation: the rule score still flows downstream.
		fmt.Fprintf(os.Stderr, "warning: AI scoring failed for %s, using rule score: %v\n", pr.ID(), err)
		return ruleScore, nil
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	parsed, err := ExtractJSON[scoreResponse](responseText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: unparseable AI response for %s, using rule score: %v\n", pr.ID(), err)
		return ruleScore, nil
	}

	value := parsed.Score
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	category := parsed.Category
	if !validCategory(category) {
		category = ruleScore.Category
	}

	return &types.Score{
		PRID:      pr.ID(),
		Author:    pr.Author,
		Value:     value,
		Category:  category,
		Breakdown: ruleScore.Breakdown,
		Method:    "ai",
		Reasoning: parsed.Reasoning,
		ScoredAt:  time.Now().UTC(),
	}, nil
}

func buildScorePrompt(pr *types.PullRequest, ruleScore *types.Score) string {
	var b strings.Builder
	b.WriteString("Score this pull request's engineering impact from 0 to 100 and classify it.\n\n")
	fmt.Fprintf(&b, "Repo: %s\nTitle: %s\n", pr.Repo, pr.Title)
	if pr.Body != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", truncate(pr.Body, 2000))
	}
	fmt.Fprintf(&b, "Diff stats: +%d -%d across %d files\n", pr.Additions, pr.Deletions, pr.ChangedFiles)
	if pr.TicketKey != "" {
		fmt.Fprintf(&b, "Linked ticket: %s\n", pr.TicketKey)
	}
	fmt.Fprintf(&b, "\nA rule-based baseline scored this %.0f (%s).\n", ruleScore.Value, ruleScore.Category)
	b.WriteString(`
Respond with only a JSON object:
{"score": <0-100>, "category": "<feature|bugfix|refactor|test|docs|chore>", "reasoning": "<one or two sentences>"}`)
	return b.String()
}

func validCategory(c string) bool {
	switch c {
	case analyzer.CategoryFeature, analyzer.CategoryBugfix, analyzer.CategoryRefactor,
		analyzer.CategoryTest, analyzer.CategoryDocs, analyzer.CategoryChore:
		return true
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
