package insights

import (
	"context"
	"sync"

	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
	"go.uber.org/zap"
)

// DataClient is the REST surface the aggregator fans out over.
type DataClient interface {
	GetUserProfile(ctx context.Context, login string) (githubapi.Profile, error)
	ListUserRepos(ctx context.Context, login string, pageSize int) ([]githubapi.RepositorySummary, error)
	ListPublicEvents(ctx context.Context, login string, pageSize int) ([]githubapi.ActivityEvent, error)
	SearchIssueCount(ctx context.Context, query string) (int, error)
	SearchRecentIssues(ctx context.Context, query string, sampleSize int) (githubapi.IssueSearchResult, error)
	LanguagesClient
}

// CalendarClient supplies the credential-gated contribution calendar.
// A nil result means absent; this call can never fail an aggregation.
type CalendarClient interface {
	QueryCalendar(ctx context.Context, login string) *githubapi.ContributionCalendar
}

// RateLimitReader reads the core rate-limit snapshot.
type RateLimitReader interface {
	Snapshot(ctx context.Context) (*githubapi.RateLimitSnapshot, error)
}

// Limits bound how much of each upstream collection a request may pull.
type Limits struct {
	RepoPageSize       int
	EventSampleSize    int
	IssueSampleSize    int
	LanguageRepoCap    int
	LanguageWindowSize int
}

// DefaultLimits returns the historical collection caps.
func DefaultLimits() Limits {
	return Limits{
		RepoPageSize:       100,
		EventSampleSize:    20,
		IssueSampleSize:    50,
		LanguageRepoCap:    40,
		LanguageWindowSize: 5,
	}
}

// callPolicy states whether a sub-call's failure aborts the aggregation or
// degrades one report field.
type callPolicy int

const (
	requiredCall callPolicy = iota
	optionalCall
)

type subTask struct {
	name   string
	policy callPolicy
	run    func(ctx context.Context) error
}

// Aggregator orchestrates the upstream fan-out and composes the report.
type Aggregator struct {
	data      DataClient
	calendar  CalendarClient
	rateLimit RateLimitReader
	limits    Limits
	badges    BadgeThresholds
	logger    *zap.Logger
}

// AggregatorConfig tunes collection caps and badge thresholds.
type AggregatorConfig struct {
	Limits Limits
	Badges BadgeThresholds
	Logger *zap.Logger
}

// NewAggregator creates an aggregator. Zero-value limits and thresholds fall
// back to the defaults.
func NewAggregator(data DataClient, calendar CalendarClient, rateLimit RateLimitReader, cfg AggregatorConfig) *Aggregator {
	limits := cfg.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	thresholds := cfg.Badges
	if thresholds == (BadgeThresholds{}) {
		thresholds = DefaultBadgeThresholds()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		data:      data,
		calendar:  calendar,
		rateLimit: rateLimit,
		limits:    limits,
		badges:    thresholds,
		logger:    logger,
	}
}

// Aggregate builds one report for login. Required-call failures propagate
// unwrapped; optional-call failures degrade their report field to absent.
func (a *Aggregator) Aggregate(ctx context.Context, login string, advanced bool) (*AggregatedReport, error) {
	// Identity and repository list first; both are required and everything
	// downstream consumes the repository list.
	var (
		profile    githubapi.Profile
		repos      []githubapi.RepositorySummary
		profileErr error
		reposErr   error
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = a.data.GetUserProfile(ctx, login)
	}()
	go func() {
		defer wg.Done()
		repos, reposErr = a.data.ListUserRepos(ctx, login, a.limits.RepoPageSize)
	}()
	wg.Wait()
	if profileErr != nil {
		return nil, profileErr
	}
	if reposErr != nil {
		return nil, reposErr
	}

	var (
		snapshot  *githubapi.RateLimitSnapshot
		events    []githubapi.ActivityEvent
		calendar  *githubapi.ContributionCalendar
		issues    githubapi.IssueSearchResult
		languages LanguageByteMap
		prOpened  int
		prMerged  int
		prClosed  int
	)

	// The full per-call failure policy lives in this one table. Event-list
	// failure is fatal while issue-sample and calendar failures are not;
	// that asymmetry is preserved from the observed behavior.
	tasks := []subTask{
		{name: "rate_limit_snapshot", policy: optionalCall, run: func(ctx context.Context) error {
			snap, err := a.rateLimit.Snapshot(ctx)
			if err != nil {
				return err
			}
			snapshot = snap
			return nil
		}},
		{name: "public_events", policy: requiredCall, run: func(ctx context.Context) error {
			list, err := a.data.ListPublicEvents(ctx, login, a.limits.EventSampleSize)
			if err != nil {
				return err
			}
			events = list
			return nil
		}},
		{name: "contribution_calendar", policy: optionalCall, run: func(ctx context.Context) error {
			calendar = a.calendar.QueryCalendar(ctx, login)
			return nil
		}},
		{name: "issue_sample", policy: optionalCall, run: func(ctx context.Context) error {
			sample, err := a.data.SearchRecentIssues(ctx, "is:issue author:"+login, a.limits.IssueSampleSize)
			if err != nil {
				return err
			}
			issues = sample
			return nil
		}},
		{name: "pr_search_opened", policy: requiredCall, run: func(ctx context.Context) error {
			count, err := a.data.SearchIssueCount(ctx, "is:pr author:"+login)
			if err != nil {
				return err
			}
			prOpened = count
			return nil
		}},
		{name: "pr_search_merged", policy: requiredCall, run: func(ctx context.Context) error {
			count, err := a.data.SearchIssueCount(ctx, "is:pr is:merged author:"+login)
			if err != nil {
				return err
			}
			prMerged = count
			return nil
		}},
		{name: "pr_search_closed", policy: requiredCall, run: func(ctx context.Context) error {
			count, err := a.data.SearchIssueCount(ctx, "is:pr is:closed author:"+login)
			if err != nil {
				return err
			}
			prClosed = count
			return nil
		}},
	}
	if advanced {
		tasks = append(tasks, subTask{name: "language_bytes", policy: optionalCall, run: func(ctx context.Context) error {
			languages = fetchLanguageBytes(ctx, a.data, repos, a.limits.LanguageRepoCap, a.limits.LanguageWindowSize)
			return nil
		}})
	}
	if err := a.runTasks(ctx, login, tasks); err != nil {
		return nil, err
	}

	histogram := languageHistogram(repos)
	totals := repoTotals(repos)
	ratio := mergeRatio(prMerged, prOpened)

	return &AggregatedReport{
		Profile:               profile,
		Repos:                 repos,
		Totals:                totals,
		Languages:             histogram,
		PRs:                   PRCounters{Opened: prOpened, Merged: prMerged, Closed: prClosed},
		Events:                events,
		PRMergeRatio:          ratio,
		ContributionsCalendar: calendar,
		Issues: IssueStats{
			Opened:        issues.TotalCount,
			AvgCloseHours: avgCloseHours(issues.Items),
		},
		Badges:            badges(a.badges, totals.Stars, prMerged, ratio, calendar),
		RateLimit:         snapshot,
		AdvancedLanguages: languages,
		Ecosystems:        ecosystems(histogram),
	}, nil
}

// runTasks executes all sub-tasks concurrently and waits for every one to
// settle, then applies each task's policy: the first required failure in
// declaration order is returned, optional failures are absorbed and logged.
func (a *Aggregator) runTasks(ctx context.Context, login string, tasks []subTask) error {
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task subTask) {
			defer wg.Done()
			errs[i] = task.run(ctx)
		}(i, task)
	}
	wg.Wait()

	var firstRequired error
	for i, task := range tasks {
		if errs[i] == nil {
			continue
		}
		if task.policy == requiredCall {
			if firstRequired == nil {
				firstRequired = errs[i]
			}
			continue
		}
		a.logger.Warn("optional upstream call failed",
			zap.String("call", task.name),
			zap.String("login", login),
			zap.Error(errs[i]),
		)
	}
	return firstRequired
}
