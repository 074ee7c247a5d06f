package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultGitHubAPIBaseURL = "https://api.github.com/"

// HTTPDoer is implemented by http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues authenticated GETs against the GitHub REST surface.
// Every call attaches the same Accept header and, when a static token is
// configured, the same bearer credential. It never retries.
type Client struct {
	doer    HTTPDoer
	baseURL *url.URL
	token   string
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	// BaseURL overrides the GitHub API base URL, mainly for tests.
	BaseURL string
	// Token is the optional server-held bearer credential. Leave empty when
	// the HTTPClient transport injects its own credential (GitHub App auth).
	Token string
	// HTTPClient is the underlying transport. Defaults to a plain client
	// with Timeout applied.
	HTTPClient HTTPDoer
	Timeout    time.Duration
}

// NewClient creates a GitHub REST client.
func NewClient(cfg ClientConfig) (*Client, error) {
	parsed, err := parseAPIBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		doer:    doer,
		baseURL: parsed,
		token:   cfg.Token,
	}, nil
}

// GetUserProfile reads one account's profile snapshot.
func (c *Client) GetUserProfile(ctx context.Context, login string) (Profile, error) {
	trimmed := strings.TrimSpace(login)
	if trimmed == "" {
		return Profile{}, fmt.Errorf("login is required")
	}

	reqURL := c.cloneBaseURL()
	reqURL.Path = joinURLPath(reqURL.Path, "users", url.PathEscape(trimmed))

	var profile Profile
	if err := c.getJSON(ctx, reqURL.String(), &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// ListUserRepos lists up to pageSize owned repositories, most recently updated first.
func (c *Client) ListUserRepos(ctx context.Context, login string, pageSize int) ([]RepositorySummary, error) {
	trimmed := strings.TrimSpace(login)
	if trimmed == "" {
		return nil, fmt.Errorf("login is required")
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	reqURL := c.cloneBaseURL()
	reqURL.Path = joinURLPath(reqURL.Path, "users", url.PathEscape(trimmed), "repos")
	query := reqURL.Query()
	query.Set("per_page", strconv.Itoa(pageSize))
	query.Set("type", "owner")
	query.Set("sort", "updated")
	reqURL.RawQuery = query.Encode()

	var payload []repositoryPayload
	if err := c.getJSON(ctx, reqURL.String(), &payload); err != nil {
		return nil, err
	}

	repos := make([]RepositorySummary, 0, len(payload))
	for _, repo := range payload {
		repos = append(repos, RepositorySummary{
			ID:        repo.ID,
			Name:      repo.Name,
			FullName:  repo.FullName,
			HTMLURL:   repo.HTMLURL,
			Stars:     repo.StargazersCount,
			Forks:     repo.ForksCount,
			Language:  repo.Language,
			UpdatedAt: repo.UpdatedAt,
		})
	}
	return repos, nil
}

// ListPublicEvents lists up to pageSize recent public events.
func (c *Client) ListPublicEvents(ctx context.Context, login string, pageSize int) ([]ActivityEvent, error) {
	trimmed := strings.TrimSpace(login)
	if trimmed == "" {
		return nil, fmt.Errorf("login is required")
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	reqURL := c.cloneBaseURL()
	reqURL.Path = joinURLPath(reqURL.Path, "users", url.PathEscape(trimmed), "events", "public")
	query := reqURL.Query()
	query.Set("per_page", strconv.Itoa(pageSize))
	reqURL.RawQuery = query.Encode()

	var payload []eventPayload
	if err := c.getJSON(ctx, reqURL.String(), &payload); err != nil {
		return nil, err
	}

	events := make([]ActivityEvent, 0, len(payload))
	for _, event := range payload {
		typed := ActivityEvent{
			ID:        event.ID,
			Type:      event.Type,
			CreatedAt: event.CreatedAt,
		}
		if event.Repo != nil && event.Repo.Name != "" {
			name := event.Repo.Name
			typed.Repo = &name
		}
		events = append(events, typed)
	}
	return events, nil
}

// SearchIssueCount reads the approximate total for one search-index query.
func (c *Client) SearchIssueCount(ctx context.Context, query string) (int, error) {
	result, err := c.searchIssues(ctx, query, 1)
	if err != nil {
		return 0, err
	}
	return result.TotalCount, nil
}

// SearchRecentIssues samples up to sampleSize most-recent issues for one query.
func (c *Client) SearchRecentIssues(ctx context.Context, query string, sampleSize int) (IssueSearchResult, error) {
	if sampleSize <= 0 {
		sampleSize = 50
	}
	return c.searchIssues(ctx, query, sampleSize)
}

// ListRepoLanguages reads the per-language byte breakdown for one repository.
func (c *Client) ListRepoLanguages(ctx context.Context, owner, repo string) (map[string]int64, error) {
	trimmedOwner := strings.TrimSpace(owner)
	trimmedRepo := strings.TrimSpace(repo)
	if trimmedOwner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if trimmedRepo == "" {
		return nil, fmt.Errorf("repo is required")
	}

	reqURL := c.cloneBaseURL()
	reqURL.Path = joinURLPath(reqURL.Path, "repos", url.PathEscape(trimmedOwner), url.PathEscape(trimmedRepo), "languages")

	var languages map[string]int64
	if err := c.getJSON(ctx, reqURL.String(), &languages); err != nil {
		return nil, err
	}
	return languages, nil
}

func (c *Client) searchIssues(ctx context.Context, query string, perPage int) (IssueSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return IssueSearchResult{}, fmt.Errorf("search query is required")
	}

	reqURL := c.cloneBaseURL()
	reqURL.Path = joinURLPath(reqURL.Path, "search", "issues")
	values := reqURL.Query()
	values.Set("q", query)
	values.Set("per_page", strconv.Itoa(perPage))
	reqURL.RawQuery = values.Encode()

	var payload issueSearchPayload
	if err := c.getJSON(ctx, reqURL.String(), &payload); err != nil {
		return IssueSearchResult{}, err
	}

	result := IssueSearchResult{TotalCount: payload.TotalCount}
	for _, item := range payload.Items {
		typed := IssueItem{CreatedAt: parseRFC3339(item.CreatedAt)}
		if item.ClosedAt != nil {
			closedAt := parseRFC3339(*item.ClosedAt)
			typed.ClosedAt = &closedAt
		}
		result.Items = append(result.Items, typed)
	}
	return result, nil
}

// getJSON performs one authenticated GET and decodes the JSON body, mapping
// non-success statuses to typed failures.
func (c *Client) getJSON(ctx context.Context, reqURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return &RateLimitError{}
		}
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Detail:     readErrorDetail(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}
	return nil
}

func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorDetailBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func parseAPIBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultGitHubAPIBaseURL
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse github api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse github api base url: missing scheme or host")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}

func (c *Client) cloneBaseURL() *url.URL {
	cloned := *c.baseURL
	return &cloned
}

func joinURLPath(base string, segments ...string) string {
	trimmedBase := strings.TrimSuffix(base, "/")
	builder := strings.Builder{}
	builder.WriteString(trimmedBase)
	for _, segment := range segments {
		builder.WriteString("/")
		builder.WriteString(strings.TrimPrefix(segment, "/"))
	}
	return builder.String()
}

func parseRFC3339(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

type repositoryPayload struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	HTMLURL         string  `json:"html_url"`
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
	Language        *string `json:"language"`
	UpdatedAt       string  `json:"updated_at"`
}

type eventPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Repo *struct {
		Name string `json:"name"`
	} `json:"repo"`
	CreatedAt string `json:"created_at"`
}

type issueSearchPayload struct {
	TotalCount int                  `json:"total_count"`
	Items      []issueSearchItemDTO `json:"items"`
}

type issueSearchItemDTO struct {
	CreatedAt string  `json:"created_at"`
	ClosedAt  *string `json:"closed_at"`
}
