package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
)

// InstallationAuthConfig configures GitHub App installation authentication,
// the alternative to a static bearer token.
type InstallationAuthConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	Timeout        time.Duration
	BaseTransport  http.RoundTripper
}

// NewInstallationHTTPClient creates an HTTP client whose transport injects
// GitHub App installation credentials into every request.
func NewInstallationHTTPClient(cfg InstallationAuthConfig) (*http.Client, error) {
	if cfg.AppID <= 0 {
		return nil, fmt.Errorf("app id must be > 0")
	}
	if cfg.InstallationID <= 0 {
		return nil, fmt.Errorf("installation id must be > 0")
	}
	if strings.TrimSpace(cfg.PrivateKeyPath) == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	baseTransport := cfg.BaseTransport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}

	transport, err := ghinstallation.NewKeyFromFile(baseTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("create github app transport: %w", err)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}

// RateLimitClient reads the core REST rate-limit snapshot through go-github.
type RateLimitClient struct {
	client *github.Client
}

// NewRateLimitClient creates a rate-limit snapshot client over the shared
// authenticated transport. Token is attached only when the transport does not
// already carry a credential.
func NewRateLimitClient(httpClient *http.Client, apiBaseURL, token string) (*RateLimitClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	trimmedBaseURL := strings.TrimSpace(apiBaseURL)
	if trimmedBaseURL != "" {
		parsed, err := parseAPIBaseURL(trimmedBaseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = parsed
	}

	return &RateLimitClient{client: client}, nil
}

// Snapshot reads the current core rate-limit state.
func (c *RateLimitClient) Snapshot(ctx context.Context) (*RateLimitSnapshot, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rate limit: %w", err)
	}

	core := limits.GetCore()
	if core == nil {
		return nil, fmt.Errorf("rate limit response missing core resource")
	}

	return &RateLimitSnapshot{
		Remaining: core.Remaining,
		Limit:     core.Limit,
		Reset:     core.Reset.Unix(),
	}, nil
}
