// Package insights aggregates GitHub contribution analytics for one account
// into a single denormalized report.
package insights

import (
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
)

// Totals are star and fork sums across the repository list.
type Totals struct {
	Stars int `json:"stars"`
	Forks int `json:"forks"`
}

// PRCounters are approximate pull-request search totals by state.
type PRCounters struct {
	Opened int `json:"opened"`
	Merged int `json:"merged"`
	Closed int `json:"closed"`
}

// IssueStats summarizes the authored-issue sample. AvgCloseHours is absent
// when no sampled issue has a close timestamp.
type IssueStats struct {
	Opened        int      `json:"opened"`
	AvgCloseHours *float64 `json:"avgCloseHours,omitempty"`
}

// LanguageByteMap maps language name to aggregate byte count across the
// scanned repository subset.
type LanguageByteMap map[string]int64

// AggregatedReport is the top-level response record, built fresh per request.
type AggregatedReport struct {
	Profile               githubapi.Profile               `json:"profile"`
	Repos                 []githubapi.RepositorySummary   `json:"repos"`
	Totals                Totals                          `json:"totals"`
	Languages             map[string]int                  `json:"languages"`
	PRs                   PRCounters                      `json:"prs"`
	Events                []githubapi.ActivityEvent       `json:"events"`
	PRMergeRatio          float64                         `json:"prMergeRatio"`
	ContributionsCalendar *githubapi.ContributionCalendar `json:"contributionsCalendar"`
	Issues                IssueStats                      `json:"issues"`
	Badges                []string                        `json:"badges"`
	RateLimit             *githubapi.RateLimitSnapshot    `json:"rateLimit"`
	AdvancedLanguages     LanguageByteMap                 `json:"advancedLanguages,omitzero"`
	Ecosystems            []string                        `json:"ecosystems"`
}
