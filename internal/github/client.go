// Package github provides a minimal GitHub REST v3 client and the triage
// rules the tracker applies to issues, pull requests, and reviews.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forgewatch/forgewatch/internal/platform/timeouts"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Account is a GitHub user reference.
type Account struct {
	Login string `json:"login"`
}

// Label is an issue label reference.
type Label struct {
	Name string `json:"name"`
}

// Issue is the subset of the issues payload the tracker consumes. The issues
// endpoint also returns pull requests; PullRequest is non-nil for those rows.
type Issue struct {
	Number        int              `json:"number"`
	Title         string           `json:"title"`
	State         string           `json:"state"`
	HTMLURL       string           `json:"html_url"`
	RepositoryURL string           `json:"repository_url"`
	Draft         bool             `json:"draft"`
	Assignee      *Account         `json:"assignee"`
	PullRequest   *json.RawMessage `json:"pull_request"`
	Labels        []Label          `json:"labels"`
}

// PullRequest is an open pull request reference.
type PullRequest struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	User   *Account `json:"user"`
}

// Review is one pull request review.
type Review struct {
	User  *Account `json:"user"`
	State string   `json:"state"`
}

// Event is one entry of an issue's event timeline.
type Event struct {
	Event     string    `json:"event"`
	Assignee  *Account  `json:"assignee"`
	CreatedAt time.Time `json:"created_at"`
}

// Client calls the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a GitHub client. An empty baseURL targets the public API;
// an empty token sends unauthenticated requests.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.HTTPRequest}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

// ListIssues returns the repository issues payload, which includes open pull
// requests; callers filter with the triage helpers.
func (c *Client) ListIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	var issues []Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.get(ctx, path, nil, &issues); err != nil {
		return nil, fmt.Errorf("list issues %s/%s: %w", owner, repo, err)
	}
	return issues, nil
}

// ListOpenPulls returns the repository's open pull requests.
func (c *Client) ListOpenPulls(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var pulls []PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.get(ctx, path, url.Values{"state": []string{"open"}}, &pulls); err != nil {
		return nil, fmt.Errorf("list pulls %s/%s: %w", owner, repo, err)
	}
	return pulls, nil
}

// ListReviews returns the reviews of one pull request.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number int) ([]Review, error) {
	var reviews []Review
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", url.PathEscape(owner), url.PathEscape(repo), number)
	if err := c.get(ctx, path, nil, &reviews); err != nil {
		return nil, fmt.Errorf("list reviews %s/%s#%d: %w", owner, repo, number, err)
	}
	return reviews, nil
}

// IssueEvents returns the event timeline of one issue.
func (c *Client) IssueEvents(ctx context.Context, owner, repo string, number int) ([]Event, error) {
	var events []Event
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/events", url.PathEscape(owner), url.PathEscape(repo), number)
	if err := c.get(ctx, path, nil, &events); err != nil {
		return nil, fmt.Errorf("issue events %s/%s#%d: %w", owner, repo, number, err)
	}
	return events, nil
}

// SearchAssignedIssues returns issues assigned to a GitHub login.
func (c *Client) SearchAssignedIssues(ctx context.Context, login string) ([]Issue, error) {
	var result struct {
		Items []Issue `json:"items"`
	}
	query := url.Values{"q": []string{"assignee:" + login}}
	if err := c.get(ctx, "/search/issues", query, &result); err != nil {
		return nil, fmt.Errorf("search issues for %s: %w", login, err)
	}
	return result.Items, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("github responded %s: %s", response.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// RepositoryFromIssue derives the author and name from an issue's repository URL.
func RepositoryFromIssue(issue Issue) (author, name string, ok bool) {
	trimmed := strings.TrimRight(issue.RepositoryURL, "/")
	if trimmed == "" {
		return "", "", false
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}
