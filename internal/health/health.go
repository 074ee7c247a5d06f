package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// Mode indicates high-level health mode.
type Mode string

const (
	// ModeHealthy indicates all dependencies are usable.
	ModeHealthy Mode = "healthy"
	// ModeDegraded indicates the service runs but under the unauthenticated
	// rate-limit ceiling.
	ModeDegraded Mode = "degraded"
	// ModeUnhealthy indicates a required dependency is unusable.
	ModeUnhealthy Mode = "unhealthy"
)

// Input represents dependency states used for health evaluation.
type Input struct {
	GitHubClientUsable   bool
	CredentialConfigured bool
}

// Status represents evaluated application health.
type Status struct {
	Mode       Mode            `json:"mode"`
	Ready      bool            `json:"ready"`
	Components map[string]bool `json:"components"`
}

// Provider supplies current health status.
type Provider interface {
	CurrentStatus(ctx context.Context) Status
}

// StatusEvaluator evaluates readiness and mode from dependency state.
type StatusEvaluator struct{}

// NewStatusEvaluator creates a health evaluator.
func NewStatusEvaluator() *StatusEvaluator {
	return &StatusEvaluator{}
}

// Evaluate evaluates readiness and mode. A missing credential degrades but
// never blocks readiness; the GitHub client is required.
func (e *StatusEvaluator) Evaluate(input Input) Status {
	components := map[string]bool{
		"github_client": input.GitHubClientUsable,
		"credential":    input.CredentialConfigured,
	}

	ready := input.GitHubClientUsable
	mode := ModeHealthy
	if !ready {
		mode = ModeUnhealthy
	} else if !input.CredentialConfigured {
		mode = ModeDegraded
	}

	return Status{
		Mode:       mode,
		Ready:      ready,
		Components: components,
	}
}

// FixedProvider serves one status evaluated at startup. The service holds no
// cross-request state, so dependency health cannot change at runtime.
type FixedProvider struct {
	status Status
}

// NewFixedProvider creates a provider around one evaluated status.
func NewFixedProvider(status Status) *FixedProvider {
	return &FixedProvider{status: status}
}

// CurrentStatus reports the startup-evaluated status.
func (p *FixedProvider) CurrentStatus(_ context.Context) Status {
	return p.status
}

// NewHandler returns the health HTTP handler with /livez, /readyz, and /healthz endpoints.
func NewHandler(provider Provider) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status := provider.CurrentStatus(r.Context())
		if status.Ready {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := provider.CurrentStatus(r.Context())
		payload, err := json.Marshal(status)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"mode":"unhealthy","error":"marshal health status"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	})

	return mux
}
