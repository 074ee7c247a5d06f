package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
)

const defaultGraphQLEndpoint = "https://api.github.com/graphql"

const contributionCalendarQuery = `
query($login:String!){
  user(login:$login){
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

// GraphQLClient queries the credential-gated GraphQL enrichment surface.
// Every failure path yields an absent result rather than an error: the
// calendar is never allowed to fail an aggregation.
type GraphQLClient struct {
	doer          HTTPDoer
	endpoint      string
	token         string
	hasCredential bool
}

// NewGraphQLClient creates a GraphQL client. hasCredential reports whether
// any upstream credential is configured (static token or App transport);
// without one QueryCalendar short-circuits to absent with no network call.
func NewGraphQLClient(doer HTTPDoer, endpoint, token string, hasCredential bool) *GraphQLClient {
	if doer == nil {
		doer = &http.Client{}
	}
	if endpoint == "" {
		endpoint = defaultGraphQLEndpoint
	}
	return &GraphQLClient{
		doer:          doer,
		endpoint:      endpoint,
		token:         token,
		hasCredential: hasCredential,
	}
}

// QueryCalendar reads the last year's contribution calendar for one login.
// Returns nil when no credential is configured, on any transport or HTTP
// failure, and on unexpected response nesting.
func (c *GraphQLClient) QueryCalendar(ctx context.Context, login string) *ContributionCalendar {
	if !c.hasCredential {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"query":     contributionCalendarQuery,
		"variables": map[string]string{"login": login},
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}

	var payload calendarResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}
	if payload.Data.User == nil {
		return nil
	}
	raw := payload.Data.User.ContributionsCollection.ContributionCalendar
	if raw == nil {
		return nil
	}

	calendar := &ContributionCalendar{
		Total: raw.TotalContributions,
		Days:  make([]ContributionDay, 0, len(raw.Weeks)*7),
	}
	for _, week := range raw.Weeks {
		for _, day := range week.ContributionDays {
			calendar.Days = append(calendar.Days, ContributionDay{
				Date:  day.Date,
				Count: day.ContributionCount,
			})
		}
	}

	// Weeks arrive column-major; ISO dates sort lexicographically.
	sort.Slice(calendar.Days, func(i, j int) bool {
		return calendar.Days[i].Date < calendar.Days[j].Date
	})
	return calendar
}

type calendarResponsePayload struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar *struct {
					TotalContributions int `json:"totalContributions"`
					Weeks              []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
}
