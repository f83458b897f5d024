package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/steveyegge/northstar/internal/breaker"
	"github.com/steveyegge/northstar/internal/types"
)

// DefaultEndpoint is the Linear GraphQL API endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

// Client is a minimal Linear GraphQL client used to verify matched
// ticket keys and pull assignee names for identity resolution.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	breaker  *breaker.Breaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint points the client at a non-default endpoint (tests).
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithBreaker attaches a circuit breaker.
func WithBreaker(b *breaker.Breaker) ClientOption {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a Linear client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const issueQuery = `query Issue($id: String!) {
  issue(id: $id) {
    identifier
    title
    estimate
    state { name }
    assignee { displayName }
  }
}`

type issueResponse struct {
	Data struct {
		Issue *struct {
			Identifier string  `json:"identifier"`
			Title      string  `json:"title"`
			Estimate   float64 `json:"estimate"`
			State      struct {
				Name string `json:"name"`
			} `json:"state"`
			Assignee *struct {
				DisplayName string `json:"displayName"`
			} `json:"assignee"`
		} `json:"issue"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GetTicket fetches one ticket by key, e.g. "ENG-123". Returns (nil,
// nil) when the key doesn't exist — an unverifiable key is not an error,
// the match is simply kept unverified.
func (c *Client) GetTicket(ctx context.Context, key string) (*types.Ticket, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(map[string]any{
		"query":     issueQuery,
		"variables": map[string]string{"id": key},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("querying Linear for %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.recordFailure()
		return nil, fmt.Errorf("querying Linear for %s: %s: %s", key, resp.Status, body)
	}

	var decoded issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("decoding Linear response: %w", err)
	}
	c.recordSuccess()

	if decoded.Data.Issue == nil {
		return nil, nil
	}

	ticket := &types.Ticket{
		Key:      decoded.Data.Issue.Identifier,
		Title:    decoded.Data.Issue.Title,
		State:    decoded.Data.Issue.State.Name,
		Estimate: int(decoded.Data.Issue.Estimate),
	}
	if decoded.Data.Issue.Assignee != nil {
		ticket.Assignee = decoded.Data.Issue.Assignee.DisplayName
	}
	return ticket, nil
}

func (c *Client) recordSuccess() {
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}
