package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/insights"
)

type fakeAggregator struct {
	report *insights.AggregatedReport
	err    error

	gotLogin    string
	gotAdvanced bool
}

func (a *fakeAggregator) Aggregate(_ context.Context, login string, advanced bool) (*insights.AggregatedReport, error) {
	a.gotLogin = login
	a.gotAdvanced = advanced
	return a.report, a.err
}

func okReport() *insights.AggregatedReport {
	return &insights.AggregatedReport{
		Profile:    githubapi.Profile{Login: "octocat"},
		Repos:      []githubapi.RepositorySummary{},
		Languages:  map[string]int{},
		Badges:     []string{},
		Ecosystems: []string{},
	}
}

func TestAnalyticsRequiresUsername(t *testing.T) {
	t.Parallel()

	handler := NewHTTPHandler(&fakeAggregator{report: okReport()}, HandlerOptions{})

	for _, target := range []string{"/analytics", "/analytics?username=", "/analytics?username=%20%20"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("GET %s status = %d, want 400", target, recorder.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["error"] != "username query is required" {
			t.Fatalf("error = %q, want username query is required", payload["error"])
		}
	}
}

func TestAnalyticsSuccess(t *testing.T) {
	t.Parallel()

	aggregator := &fakeAggregator{report: okReport()}
	handler := NewHTTPHandler(aggregator, HandlerOptions{Metrics: NewMetrics()})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/analytics?username=octocat", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", got)
	}
	if aggregator.gotLogin != "octocat" {
		t.Fatalf("login = %q, want octocat", aggregator.gotLogin)
	}
	if aggregator.gotAdvanced {
		t.Fatalf("advanced = true, want false without advanced=1")
	}

	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	profile, ok := payload["profile"].(map[string]any)
	if !ok || profile["login"] != "octocat" {
		t.Fatalf("profile = %#v, want login octocat", payload["profile"])
	}
	if _, present := payload["advancedLanguages"]; present {
		t.Fatalf("advancedLanguages present in basic report: %s", recorder.Body.String())
	}
}

func TestAnalyticsAdvancedFlag(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		target       string
		wantAdvanced bool
	}{
		{name: "advanced_one", target: "/analytics?username=octocat&advanced=1", wantAdvanced: true},
		{name: "advanced_true_is_not_enough", target: "/analytics?username=octocat&advanced=true", wantAdvanced: false},
		{name: "advanced_absent", target: "/analytics?username=octocat", wantAdvanced: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			aggregator := &fakeAggregator{report: okReport()}
			handler := NewHTTPHandler(aggregator, HandlerOptions{})

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tc.target, nil))

			if recorder.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", recorder.Code)
			}
			if aggregator.gotAdvanced != tc.wantAdvanced {
				t.Fatalf("advanced = %v, want %v", aggregator.gotAdvanced, tc.wantAdvanced)
			}
		})
	}
}

func TestAnalyticsUpstreamFailure(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		err       error
		wantError string
	}{
		{
			name:      "rate_limit_message_passes_through",
			err:       &githubapi.RateLimitError{},
			wantError: "GitHub rate limit exceeded. Add a token to .env as GITHUB_TOKEN.",
		},
		{
			name:      "http_error_message_passes_through",
			err:       &githubapi.HTTPError{StatusCode: 502, Detail: "upstream exploded"},
			wantError: "GitHub API error 502: upstream exploded",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := NewHTTPHandler(&fakeAggregator{err: tc.err}, HandlerOptions{})

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/analytics?username=octocat", nil))

			if recorder.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", recorder.Code)
			}
			var payload map[string]string
			if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if payload["error"] != tc.wantError {
				t.Fatalf("error = %q, want %q", payload["error"], tc.wantError)
			}
		})
	}
}

func TestAnalyticsRequestTimeoutBoundsContext(t *testing.T) {
	t.Parallel()

	aggregator := &deadlineCheckingAggregator{}
	handler := NewHTTPHandler(aggregator, HandlerOptions{RequestTimeout: 250 * time.Millisecond})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/analytics?username=octocat", nil))

	if !aggregator.sawDeadline {
		t.Fatalf("aggregation context carried no deadline")
	}
}

type deadlineCheckingAggregator struct {
	sawDeadline bool
}

func (a *deadlineCheckingAggregator) Aggregate(ctx context.Context, _ string, _ bool) (*insights.AggregatedReport, error) {
	_, a.sawDeadline = ctx.Deadline()
	return okReport(), nil
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	handler := NewHTTPHandler(&fakeAggregator{report: okReport()}, HandlerOptions{Metrics: NewMetrics()})

	// Exercise the analytics route so the counters have samples.
	warmup := httptest.NewRecorder()
	handler.ServeHTTP(warmup, httptest.NewRequest(http.MethodGet, "/analytics?username=octocat", nil))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "contribution_tracker_http_requests_total") {
		t.Fatalf("metrics output missing request counter:\n%s", body)
	}
}

func TestMetricsEndpointWithoutRegistryIsNotFound(t *testing.T) {
	t.Parallel()

	handler := NewHTTPHandler(&fakeAggregator{report: okReport()}, HandlerOptions{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("GET /metrics status = %d, want 404 when metrics disabled", recorder.Code)
	}
}
