// Package github extracts commits and pull requests from the GitHub REST
// API into the metrics store.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/steveyegge/northstar/internal/breaker"
	"github.com/steveyegge/northstar/internal/types"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// perPage is the page size for list endpoints (GitHub max is 100).
const perPage = 100

// nextLinkPattern pulls the rel="next" URL out of a Link header.
var nextLinkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Client is a minimal GitHub REST v3 client covering the two list
// endpoints the extractor needs. All requests go through a shared rate
// limiter and the "github" circuit breaker.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a non-default API endpoint (GitHub
// Enterprise, or a test server).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithBreaker attaches a circuit breaker. Without one, requests are
// never short-circuited.
func WithBreaker(b *breaker.Breaker) ClientOption {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a GitHub client. The authenticated rate limit is
// 5000 requests/hour; the default limiter stays just under it.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1.2), 5), // ~4300/hour with small bursts
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// commitResponse is the subset of the list-commits payload we consume.
type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
		Message string `json:"message"`
	} `json:"commit"`
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

// prResponse is the subset of the list-pulls payload we consume.
type prResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
	CreatedAt    time.Time  `json:"created_at"`
	MergedAt     *time.Time `json:"merged_at"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
}

// ListCommits returns every commit in repo ("org/name") since the given
// time, following pagination.
func (c *Client) ListCommits(ctx context.Context, repo string, since time.Time) ([]*types.Commit, error) {
	url := fmt.Sprintf("%s/repos/%s/commits?per_page=%d&since=%s",
		c.baseURL, repo, perPage, since.UTC().Format(time.RFC3339))

	var out []*types.Commit
	for url != "" {
		var page []commitResponse
		next, err := c.getPage(ctx, url, &page)
		if err != nil {
			return nil, fmt.Errorf("listing commits for %s: %w", repo, err)
		}
		for _, raw := range page {
			out = append(out, &types.Commit{
				SHA:         raw.SHA,
				Repo:        repo,
				AuthorName:  raw.Commit.Author.Name,
				AuthorEmail: raw.Commit.Author.Email,
				Message:     raw.Commit.Message,
				AuthoredAt:  raw.Commit.Author.Date,
				Additions:   raw.Stats.Additions,
				Deletions:   raw.Stats.Deletions,
			})
		}
		url = next
	}
	return out, nil
}

// ListPullRequests returns every PR in repo created since the given time,
// following pagination. The pulls endpoint sorts newest-first, so paging
// stops once a page falls entirely before the cutoff.
func (c *Client) ListPullRequests(ctx context.Context, repo string, since time.Time) ([]*types.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/pulls?state=all&sort=created&direction=desc&per_page=%d",
		c.baseURL, repo, perPage)

	var out []*types.PullRequest
	for url != "" {
		var page []prResponse
		next, err := c.getPage(ctx, url, &page)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s: %w", repo, err)
		}

		exhausted := false
		for _, raw := range page {
			if raw.CreatedAt.Before(since) {
				exhausted = true
				break
			}
			out = append(out, &types.PullRequest{
				Repo:         repo,
				Number:       raw.Number,
				Title:        raw.Title,
				Body:         raw.Body,
				AuthorHandle: raw.User.Login,
				Branch:       raw.Head.Ref,
				State:        prState(raw),
				CreatedAt:    raw.CreatedAt,
				MergedAt:     raw.MergedAt,
				Additions:    raw.Additions,
				Deletions:    raw.Deletions,
				ChangedFiles: raw.ChangedFiles,
			})
		}
		if exhausted {
			break
		}
		url = next
	}
	return out, nil
}

func prState(raw prResponse) string {
	if raw.MergedAt != nil {
		return "merged"
	}
	return raw.State
}

// getPage fetches one page into dst and returns the rel="next" URL, or
// "" when there are no more pages.
func (c *Client) getPage(ctx context.Context, url string, dst any) (string, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return "", err
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure()
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.recordFailure()
		return "", fmt.Errorf("GET %s: %s: %s", url, resp.Status, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		c.recordFailure()
		return "", fmt.Errorf("decoding response: %w", err)
	}
	c.recordSuccess()

	if m := nextLinkPattern.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
		return m[1], nil
	}
	return "", nil
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
