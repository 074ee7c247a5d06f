package insights

import (
	"math"

	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
)

// Badge labels awarded by the threshold rules below.
const (
	BadgeRisingStar      = "Rising Star"
	BadgeStellar         = "Stellar"
	BadgePRContributor   = "PR Contributor"
	BadgeHighMergeRatio  = "High Merge Ratio"
	BadgeActiveCommitter = "Active Committer"
)

// BadgeThresholds are the badge rule cut-offs. Values are kept as
// configuration rather than literals so the historical defaults stay
// auditable and overridable together.
type BadgeThresholds struct {
	RisingStarStars         int
	StellarStars            int
	PRContributorMerged     int
	HighMergeRatio          float64
	ActiveCommitterContribs int
}

// DefaultBadgeThresholds returns the historical badge cut-offs.
func DefaultBadgeThresholds() BadgeThresholds {
	return BadgeThresholds{
		RisingStarStars:         100,
		StellarStars:            1000,
		PRContributorMerged:     50,
		HighMergeRatio:          0.6,
		ActiveCommitterContribs: 300,
	}
}

// ecosystemRules maps primary-language presence to package-ecosystem tags.
// Fixed lookup table; order is the report's tag order.
var ecosystemRules = []struct {
	tag       string
	languages []string
}{
	{"npm", []string{"JavaScript", "TypeScript"}},
	{"PyPI", []string{"Python"}},
	{"Maven", []string{"Java"}},
	{"Go Modules", []string{"Go"}},
	{"Crates.io", []string{"Rust"}},
	{"NuGet", []string{"C#"}},
}

func repoTotals(repos []githubapi.RepositorySummary) Totals {
	totals := Totals{}
	for _, repo := range repos {
		totals.Stars += repo.Stars
		totals.Forks += repo.Forks
	}
	return totals
}

// languageHistogram counts repositories per declared primary language.
// Repositories without a language are excluded.
func languageHistogram(repos []githubapi.RepositorySummary) map[string]int {
	histogram := make(map[string]int)
	for _, repo := range repos {
		if repo.Language == nil || *repo.Language == "" {
			continue
		}
		histogram[*repo.Language]++
	}
	return histogram
}

// mergeRatio is merged/opened, clamped to 0 when nothing was opened.
func mergeRatio(merged, opened int) float64 {
	if opened == 0 {
		return 0
	}
	return float64(merged) / float64(opened)
}

// avgCloseHours is the mean close latency in hours over sampled issues that
// carry a close timestamp, rounded to two decimals. Nil when none are closed.
func avgCloseHours(items []githubapi.IssueItem) *float64 {
	var sum float64
	var closed int
	for _, item := range items {
		if item.ClosedAt == nil || item.CreatedAt.IsZero() {
			continue
		}
		sum += item.ClosedAt.Sub(item.CreatedAt).Hours()
		closed++
	}
	if closed == 0 {
		return nil
	}

	mean := math.Round(sum/float64(closed)*100) / 100
	return &mean
}

// badges evaluates the independent, order-insensitive badge rules. The badge
// set is a pure function of its inputs.
func badges(t BadgeThresholds, totalStars, prsMerged int, ratio float64, calendar *githubapi.ContributionCalendar) []string {
	awarded := []string{}
	if totalStars > t.RisingStarStars {
		awarded = append(awarded, BadgeRisingStar)
	}
	if totalStars > t.StellarStars {
		awarded = append(awarded, BadgeStellar)
	}
	if prsMerged > t.PRContributorMerged {
		awarded = append(awarded, BadgePRContributor)
	}
	if ratio > t.HighMergeRatio {
		awarded = append(awarded, BadgeHighMergeRatio)
	}
	if calendar != nil && calendar.Total > t.ActiveCommitterContribs {
		awarded = append(awarded, BadgeActiveCommitter)
	}
	return awarded
}

// ecosystems tags package ecosystems from the distinct primary languages
// observed in the histogram.
func ecosystems(histogram map[string]int) []string {
	tags := []string{}
	for _, rule := range ecosystemRules {
		for _, language := range rule.languages {
			if histogram[language] > 0 {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}
