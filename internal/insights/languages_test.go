package insights

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
)

type fakeLanguagesClient struct {
	mu       sync.Mutex
	calls    []string
	fn       func(owner, repo string) (map[string]int64, error)
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *fakeLanguagesClient) ListRepoLanguages(_ context.Context, owner, repo string) (map[string]int64, error) {
	current := c.inFlight.Add(1)
	for {
		observed := c.peak.Load()
		if current <= observed || c.peak.CompareAndSwap(observed, current) {
			break
		}
	}
	defer c.inFlight.Add(-1)

	c.mu.Lock()
	c.calls = append(c.calls, owner+"/"+repo)
	c.mu.Unlock()

	return c.fn(owner, repo)
}

func testRepos(count int) []githubapi.RepositorySummary {
	repos := make([]githubapi.RepositorySummary, 0, count)
	for i := 0; i < count; i++ {
		repos = append(repos, githubapi.RepositorySummary{
			Name:     fmt.Sprintf("repo-%d", i),
			FullName: fmt.Sprintf("octocat/repo-%d", i),
		})
	}
	return repos
}

func TestFetchLanguageBytesMergesSums(t *testing.T) {
	t.Parallel()

	client := &fakeLanguagesClient{fn: func(_, repo string) (map[string]int64, error) {
		switch repo {
		case "repo-0":
			return map[string]int64{"Go": 10}, nil
		case "repo-1":
			return map[string]int64{"Go": 5}, nil
		default:
			return map[string]int64{"Rust": 3}, nil
		}
	}}

	got := fetchLanguageBytes(context.Background(), client, testRepos(3), 40, 5)
	want := LanguageByteMap{"Go": 15, "Rust": 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fetchLanguageBytes() = %#v, want %#v", got, want)
	}
}

func TestFetchLanguageBytesSkipsFailedRepos(t *testing.T) {
	t.Parallel()

	client := &fakeLanguagesClient{fn: func(_, repo string) (map[string]int64, error) {
		switch repo {
		case "repo-0":
			return map[string]int64{"Go": 10}, nil
		case "repo-1":
			return nil, fmt.Errorf("boom")
		default:
			return map[string]int64{"Rust": 3}, nil
		}
	}}

	got := fetchLanguageBytes(context.Background(), client, testRepos(3), 40, 5)
	want := LanguageByteMap{"Go": 10, "Rust": 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fetchLanguageBytes() = %#v, want %#v", got, want)
	}
}

func TestFetchLanguageBytesHonorsRepoCap(t *testing.T) {
	t.Parallel()

	client := &fakeLanguagesClient{fn: func(_, _ string) (map[string]int64, error) {
		return map[string]int64{"Go": 1}, nil
	}}

	got := fetchLanguageBytes(context.Background(), client, testRepos(45), 40, 5)
	if got["Go"] != 40 {
		t.Fatalf("merged bytes = %d, want 40 (cap applied)", got["Go"])
	}
	if len(client.calls) != 40 {
		t.Fatalf("call count = %d, want 40", len(client.calls))
	}
}

func TestFetchLanguageBytesBoundsConcurrency(t *testing.T) {
	t.Parallel()

	client := &fakeLanguagesClient{fn: func(_, _ string) (map[string]int64, error) {
		return map[string]int64{"Go": 1}, nil
	}}

	fetchLanguageBytes(context.Background(), client, testRepos(23), 40, 5)
	if peak := client.peak.Load(); peak > 5 {
		t.Fatalf("peak concurrent calls = %d, want <= 5", peak)
	}
	if len(client.calls) != 23 {
		t.Fatalf("call count = %d, want 23", len(client.calls))
	}
}

func TestFetchLanguageBytesSkipsMalformedFullName(t *testing.T) {
	t.Parallel()

	client := &fakeLanguagesClient{fn: func(_, _ string) (map[string]int64, error) {
		return map[string]int64{"Go": 1}, nil
	}}

	repos := []githubapi.RepositorySummary{
		{Name: "alpha", FullName: "octocat/alpha"},
		{Name: "broken", FullName: "no-slash"},
	}
	got := fetchLanguageBytes(context.Background(), client, repos, 40, 5)
	if got["Go"] != 1 {
		t.Fatalf("merged bytes = %d, want 1", got["Go"])
	}
	if len(client.calls) != 1 {
		t.Fatalf("call count = %d, want 1", len(client.calls))
	}
}
