// Package review provides the interactive score review shell. Scores
// stay unreviewed until a human accepts or overrides them here; reviewed
// values are what the charts report.
package review

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/steveyegge/northstar/internal/storage"
	"github.com/steveyegge/northstar/internal/types"
)

// Action is what the reviewer decided for one score.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionOverride Action = "override"
	ActionSkip     Action = "skip"
	ActionQuit     Action = "quit"
)

// Decision is one parsed reviewer input.
type Decision struct {
	Action Action
	// Value is the override score; only set for ActionOverride.
	Value float64
}

// ParseInput parses one line of reviewer input. Accepted forms:
//
//	a, accept         accept the score as-is
//	o N, override N   override with score N (0-100)
//	s, skip           leave unreviewed
//	q, quit           stop the session
func ParseInput(line string) (Decision, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(parts) == 0 {
		return Decision{}, fmt.Errorf("empty input")
	}

	switch parts[0] {
	case "a", "accept":
		return Decision{Action: ActionAccept}, nil
	case "s", "skip":
		return Decision{Action: ActionSkip}, nil
	case "q", "quit", "exit":
		return Decision{Action: ActionQuit}, nil
	case "o", "override":
		if len(parts) != 2 {
			return Decision{}, fmt.Errorf("override needs a score, e.g. 'o 75'")
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return Decision{}, fmt.Errorf("invalid score %q", parts[1])
		}
		if v < 0 || v > 100 {
			return Decision{}, fmt.Errorf("score must be in 0-100, got %g", v)
		}
		return Decision{Action: ActionOverride, Value: v}, nil
	default:
		return Decision{}, fmt.Errorf("unknown command %q (a/o N/s/q)", parts[0])
	}
}

// Session walks the reviewer through every unreviewed score.
type Session struct {
	store storage.Storage
}

// NewSession creates a review session.
func NewSession(store storage.Storage) *Session {
	return &Session{store: store}
}

// Stats summarizes one review session.
type Stats struct {
	Presented  int
	Accepted   int
	Overridden int
	Skipped    int
}

// Run presents each unreviewed score and applies the reviewer's
// decisions. Ctrl+D or 'q' ends the session; skipped scores come back
// next time.
func (s *Session) Run(ctx context.Context) (*Stats, error) {
	scores, err := s.store.ListScores(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing unreviewed scores: %w", err)
	}

	stats := &Stats{}
	if len(scores) == 0 {
		fmt.Println("No unreviewed scores.")
		return stats, nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("review> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("%d unreviewed score(s). Commands: a(ccept), o(verride) N, s(kip), q(uit)\n\n", len(scores))

	for i, score := range scores {
		printScore(i+1, len(scores), score)
		stats.Presented++

		decided := false
		for !decided {
			line, err := rl.Readline()
			if err != nil {
				if err == readline.ErrInterrupt {
					continue
				}
				if err == io.EOF {
					return stats, nil
				}
				return stats, err
			}
			if strings.TrimSpace(line) == "" {
				continue
			}

			decision, err := ParseInput(line)
			if err != nil {
				fmt.Printf("%s %v\n", color.RedString("Error:"), err)
				continue
			}

			switch decision.Action {
			case ActionQuit:
				return stats, nil
			case ActionSkip:
				stats.Skipped++
				decided = true
			case ActionAccept:
				if err := s.store.MarkReviewed(ctx, score.PRID, score.Value); err != nil {
					return stats, fmt.Errorf("marking %s reviewed: %w", score.PRID, err)
				}
				stats.Accepted++
				decided = true
			case ActionOverride:
				if err := s.store.MarkReviewed(ctx, score.PRID, decision.Value); err != nil {
					return stats, fmt.Errorf("marking %s reviewed: %w", score.PRID, err)
				}
				fmt.Printf("  %.0f → %.0f\n", score.Value, decision.Value)
				stats.Overridden++
				decided = true
			}
		}
		fmt.Println()
	}

	return stats, nil
}

func printScore(n, total int, score *types.Score) {
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("[%d/%d] %s by %s\n", n, total, bold(score.PRID), score.Author)
	fmt.Printf("  score:    %s (%s, %s)\n", yellow(fmt.Sprintf("%.0f", score.Value)), score.Category, score.Method)
	for _, sig := range score.Breakdown {
		fmt.Printf("  %-9s +%.0f  %s\n", sig.Name, sig.Points, sig.Detail)
	}
	if score.Reasoning != "" {
		fmt.Printf("  reasoning: %s\n", score.Reasoning)
	}
}
