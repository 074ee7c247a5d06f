package insights

import (
	"reflect"
	"testing"
	"time"

	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
)

func strPtr(s string) *string {
	return &s
}

func TestRepoTotals(t *testing.T) {
	t.Parallel()

	repos := []githubapi.RepositorySummary{
		{Stars: 10, Forks: 2},
		{Stars: 0, Forks: 0},
		{Stars: 95, Forks: 7},
	}
	got := repoTotals(repos)
	if got.Stars != 105 || got.Forks != 9 {
		t.Fatalf("repoTotals() = %#v, want stars 105 forks 9", got)
	}
	if got := repoTotals(nil); got.Stars != 0 || got.Forks != 0 {
		t.Fatalf("repoTotals(nil) = %#v, want zero", got)
	}
}

func TestLanguageHistogram(t *testing.T) {
	t.Parallel()

	repos := []githubapi.RepositorySummary{
		{Language: strPtr("Go")},
		{Language: strPtr("Go")},
		{Language: strPtr("Rust")},
		{Language: nil},
		{Language: strPtr("")},
	}
	got := languageHistogram(repos)
	want := map[string]int{"Go": 2, "Rust": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("languageHistogram() = %#v, want %#v", got, want)
	}
}

func TestMergeRatio(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		merged int
		opened int
		want   float64
	}{
		{name: "zero_opened_clamps_to_zero", merged: 5, opened: 0, want: 0},
		{name: "all_merged", merged: 10, opened: 10, want: 1},
		{name: "partial", merged: 3, opened: 4, want: 0.75},
		{name: "nothing_merged", merged: 0, opened: 8, want: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := mergeRatio(tc.merged, tc.opened); got != tc.want {
				t.Fatalf("mergeRatio(%d, %d) = %v, want %v", tc.merged, tc.opened, got, tc.want)
			}
		})
	}
}

func TestAvgCloseHours(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	closedAfter := func(d time.Duration) *time.Time {
		closed := base.Add(d)
		return &closed
	}

	t.Run("none_closed_is_absent", func(t *testing.T) {
		t.Parallel()

		items := []githubapi.IssueItem{
			{CreatedAt: base},
			{CreatedAt: base.Add(time.Hour)},
		}
		if got := avgCloseHours(items); got != nil {
			t.Fatalf("avgCloseHours() = %v, want nil", *got)
		}
		if got := avgCloseHours(nil); got != nil {
			t.Fatalf("avgCloseHours(nil) = %v, want nil", *got)
		}
	})

	t.Run("open_issues_excluded_from_mean", func(t *testing.T) {
		t.Parallel()

		items := []githubapi.IssueItem{
			{CreatedAt: base, ClosedAt: closedAfter(10 * time.Hour)},
			{CreatedAt: base},
			{CreatedAt: base, ClosedAt: closedAfter(20 * time.Hour)},
		}
		got := avgCloseHours(items)
		if got == nil || *got != 15 {
			t.Fatalf("avgCloseHours() = %v, want 15", got)
		}
	})

	t.Run("rounds_to_two_decimals", func(t *testing.T) {
		t.Parallel()

		items := []githubapi.IssueItem{
			{CreatedAt: base, ClosedAt: closedAfter(time.Hour)},
			{CreatedAt: base, ClosedAt: closedAfter(2 * time.Hour)},
			{CreatedAt: base, ClosedAt: closedAfter(2 * time.Hour)},
		}
		got := avgCloseHours(items)
		if got == nil || *got != 1.67 {
			t.Fatalf("avgCloseHours() = %v, want 1.67", got)
		}
	})
}

func TestBadges(t *testing.T) {
	t.Parallel()

	thresholds := DefaultBadgeThresholds()

	testCases := []struct {
		name     string
		stars    int
		merged   int
		ratio    float64
		calendar *githubapi.ContributionCalendar
		want     []string
	}{
		{
			name: "nothing_awarded_is_empty_list",
			want: []string{},
		},
		{
			name:  "thresholds_are_strict",
			stars: 100, merged: 50, ratio: 0.6,
			calendar: &githubapi.ContributionCalendar{Total: 300},
			want:     []string{},
		},
		{
			name:  "rising_star_only",
			stars: 101,
			want:  []string{BadgeRisingStar},
		},
		{
			name:  "stellar_implies_rising_star",
			stars: 1001,
			want:  []string{BadgeRisingStar, BadgeStellar},
		},
		{
			name:   "pr_contributor_and_merge_ratio",
			merged: 51, ratio: 0.61,
			want: []string{BadgePRContributor, BadgeHighMergeRatio},
		},
		{
			name:     "active_committer_requires_calendar",
			calendar: &githubapi.ContributionCalendar{Total: 301},
			want:     []string{BadgeActiveCommitter},
		},
		{
			name:  "absent_calendar_never_awards_active_committer",
			stars: 5000, merged: 500, ratio: 1,
			calendar: nil,
			want:     []string{BadgeRisingStar, BadgeStellar, BadgePRContributor, BadgeHighMergeRatio},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := badges(thresholds, tc.stars, tc.merged, tc.ratio, tc.calendar)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("badges() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestEcosystems(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		histogram map[string]int
		want      []string
	}{
		{
			name:      "empty_histogram_is_empty_list",
			histogram: map[string]int{},
			want:      []string{},
		},
		{
			name:      "unmapped_languages_ignored",
			histogram: map[string]int{"Haskell": 3, "OCaml": 1},
			want:      []string{},
		},
		{
			name:      "javascript_or_typescript_tags_npm_once",
			histogram: map[string]int{"JavaScript": 1, "TypeScript": 4},
			want:      []string{"npm"},
		},
		{
			name:      "fixed_tag_order",
			histogram: map[string]int{"Rust": 1, "Go": 2, "Python": 1, "C#": 1},
			want:      []string{"PyPI", "Go Modules", "Crates.io", "NuGet"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ecosystems(tc.histogram)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ecosystems() = %#v, want %#v", got, tc.want)
			}
		})
	}
}
