package githubapi

import "time"

// Profile is the account identity snapshot served verbatim in the report.
type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	PublicRepos int    `json:"public_repos"`
	HTMLURL     string `json:"html_url"`
}

// RepositorySummary is one owned repository in upstream most-recently-updated order.
// FullName is carried for the per-repository languages endpoint and is not serialized.
type RepositorySummary struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	FullName  string  `json:"-"`
	HTMLURL   string  `json:"html_url"`
	Stars     int     `json:"stargazers_count"`
	Forks     int     `json:"forks_count"`
	Language  *string `json:"language"`
	UpdatedAt string  `json:"updated_at"`
}

// ActivityEvent is one public event, most-recent-first.
type ActivityEvent struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Repo      *string `json:"repo"`
	CreatedAt string  `json:"created_at"`
}

// ContributionDay is one calendar day with its contribution count.
type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ContributionCalendar is the credential-gated GraphQL enrichment.
// A nil calendar means absent, which is distinct from zero contributions.
type ContributionCalendar struct {
	Total int               `json:"total"`
	Days  []ContributionDay `json:"days"`
}

// IssueItem is one sampled authored issue used for close-latency math.
type IssueItem struct {
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// IssueSearchResult is the typed result of a search-index issue sample.
type IssueSearchResult struct {
	TotalCount int
	Items      []IssueItem
}

// RateLimitSnapshot is the core REST rate-limit state at aggregation time.
type RateLimitSnapshot struct {
	Remaining int   `json:"remaining"`
	Limit     int   `json:"limit"`
	Reset     int64 `json:"reset"`
}
