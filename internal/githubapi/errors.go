package githubapi

import "fmt"

// maxErrorDetailBytes caps how much of an upstream error body is retained.
const maxErrorDetailBytes = 400

// RateLimitError reports an exhausted GitHub REST rate-limit budget.
type RateLimitError struct{}

func (e *RateLimitError) Error() string {
	return "GitHub rate limit exceeded. Add a token to .env as GITHUB_TOKEN."
}

// HTTPError reports a non-success upstream response with truncated body detail.
type HTTPError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("GitHub API error %d", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API error %d: %s", e.StatusCode, e.Detail)
}
