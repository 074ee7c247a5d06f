package insights

import (
	"context"
	"strings"
	"sync"

	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
)

// LanguagesClient lists the per-language byte breakdown for one repository.
type LanguagesClient interface {
	ListRepoLanguages(ctx context.Context, owner, repo string) (map[string]int64, error)
}

// fetchLanguageBytes scans the first repoCap repositories in the order given
// and merges their per-language byte counts into one map. Requests run in
// strictly sequential windows of windowSize, so peak outstanding upstream
// calls never exceed windowSize. A single repository's failure contributes
// nothing and never aborts the batch; the merge is a commutative sum, so
// ordering inside a window cannot affect the result.
func fetchLanguageBytes(ctx context.Context, client LanguagesClient, repos []githubapi.RepositorySummary, repoCap, windowSize int) LanguageByteMap {
	if repoCap > 0 && len(repos) > repoCap {
		repos = repos[:repoCap]
	}
	if windowSize <= 0 {
		windowSize = 1
	}

	aggregate := make(LanguageByteMap)
	var mu sync.Mutex

	for start := 0; start < len(repos); start += windowSize {
		end := min(start+windowSize, len(repos))

		var wg sync.WaitGroup
		for _, repo := range repos[start:end] {
			wg.Add(1)
			go func(repo githubapi.RepositorySummary) {
				defer wg.Done()

				owner, name, ok := strings.Cut(repo.FullName, "/")
				if !ok {
					return
				}
				languages, err := client.ListRepoLanguages(ctx, owner, name)
				if err != nil {
					return
				}

				mu.Lock()
				for language, byteCount := range languages {
					aggregate[language] += byteCount
				}
				mu.Unlock()
			}(repo)
		}
		wg.Wait()
	}

	return aggregate
}
