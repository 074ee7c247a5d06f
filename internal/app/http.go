package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/insights"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Aggregator builds one analytics report per request.
type Aggregator interface {
	Aggregate(ctx context.Context, login string, advanced bool) (*insights.AggregatedReport, error)
}

// HandlerOptions configures the HTTP surface.
type HandlerOptions struct {
	Logger *zap.Logger
	// Metrics is optional; nil disables instrumentation.
	Metrics *Metrics
	// Health serves /livez, /readyz, and /healthz.
	Health http.Handler
	// RequestTimeout bounds one aggregation end to end. Zero means no bound
	// beyond the upstream client's own timeout.
	RequestTimeout time.Duration
}

// NewHTTPHandler wires the analytics, metrics, and health endpoints on one mux.
func NewHTTPHandler(aggregator Aggregator, opts HandlerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	analytics := &analyticsHandler{
		aggregator:     aggregator,
		logger:         logger,
		requestTimeout: opts.RequestTimeout,
	}

	var metricsEndpoint http.Handler
	if opts.Metrics != nil {
		metricsEndpoint = opts.Metrics.Handler()
	}

	router := chi.NewRouter()
	traceMode := telemetry.TraceMode()
	router.Handle("/analytics", wrapHTTPHandler(traceMode, "analytics", opts.Metrics, analytics))
	router.Handle("/metrics", wrapHTTPHandler(traceMode, "metrics", nil, metricsEndpoint))
	router.Handle("/livez", wrapHTTPHandler(traceMode, "livez", nil, opts.Health))
	router.Handle("/readyz", wrapHTTPHandler(traceMode, "readyz", nil, opts.Health))
	router.Handle("/healthz", wrapHTTPHandler(traceMode, "healthz", nil, opts.Health))
	return router
}

type analyticsHandler struct {
	aggregator     Aggregator
	logger         *zap.Logger
	requestTimeout time.Duration
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *analyticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.URL.Query().Get("username"))
	if login == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username query is required"})
		return
	}
	advanced := r.URL.Query().Get("advanced") == "1"

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	started := time.Now()
	report, err := h.aggregator.Aggregate(ctx, login, advanced)
	if err != nil {
		var rateLimited *githubapi.RateLimitError
		h.logger.Warn("aggregation failed",
			zap.String("login", login),
			zap.Bool("advanced", advanced),
			zap.Bool("rate_limited", errors.As(err, &rateLimited)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	h.logger.Info("aggregation completed",
		zap.String("login", login),
		zap.Bool("advanced", advanced),
		zap.Int("repos", len(report.Repos)),
		zap.Duration("elapsed", time.Since(started)),
	)
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func wrapHTTPHandler(traceMode, route string, metrics *Metrics, handler http.Handler) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	instrumented := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusCapturingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		started := time.Now()
		handler.ServeHTTP(recorder, r)
		metrics.observe(route, recorder.status, time.Since(started))
	})

	if strings.EqualFold(strings.TrimSpace(traceMode), "off") {
		return instrumented
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer("contribution-tracker/internal/app").Start(
			r.Context(),
			"http.server."+route,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		recorder := &statusCapturingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		instrumented.ServeHTTP(recorder, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
			return
		}
		span.SetStatus(codes.Ok, "request completed")
	})
}

type statusCapturingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
