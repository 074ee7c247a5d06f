package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/app"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/config"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/githubapi"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/health"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/insights"
	"github.com/melegithubyit/Opensource-Github-Contribution-Tracker/internal/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "contribution-tracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "config/local.yaml", "path to YAML config file")
	flag.Parse()

	// .env is optional; deployments commonly keep GITHUB_TOKEN there.
	_ = godotenv.Load()

	configFile, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = configFile.Close()
	}()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if token := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); token != "" {
		cfg.GitHub.Token = token
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(logLevel(cfg.Server.LogLevel))
	logger, err := loggerConfig.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	telemetryRuntime, err := telemetry.Setup(telemetry.Config{
		Enabled:          cfg.Telemetry.OTELEnabled,
		ServiceName:      "contribution-tracker",
		TraceMode:        cfg.Telemetry.OTELTraceMode,
		TraceSampleRatio: cfg.Telemetry.OTELTraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetryRuntime.Shutdown(shutdownCtx)
	}()

	aggregator, hasCredential, err := buildAggregator(cfg, logger)
	if err != nil {
		return err
	}

	evaluator := health.NewStatusEvaluator()
	status := evaluator.Evaluate(health.Input{
		GitHubClientUsable:   true,
		CredentialConfigured: hasCredential,
	})
	healthHandler := health.NewHandler(health.NewFixedProvider(status))

	handler := app.NewHTTPHandler(aggregator, app.HandlerOptions{
		Logger:         logger,
		Metrics:        app.NewMetrics(),
		Health:         healthHandler,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rootCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.Server.ListenAddr),
			zap.Bool("credential_configured", hasCredential),
		)
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			serverErrCh <- serveErr
		}
		close(serverErrCh)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-serverErrCh:
		if serveErr != nil {
			return fmt.Errorf("http server failed: %w", serveErr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildAggregator wires the upstream clients from configuration. The second
// return reports whether any upstream credential is configured; it gates the
// GraphQL calendar enrichment.
func buildAggregator(cfg *config.Config, logger *zap.Logger) (*insights.Aggregator, bool, error) {
	staticToken := cfg.GitHub.Token
	var httpClient *http.Client
	if cfg.GitHub.App.Configured() {
		appClient, err := githubapi.NewInstallationHTTPClient(githubapi.InstallationAuthConfig{
			AppID:          cfg.GitHub.App.AppID,
			InstallationID: cfg.GitHub.App.InstallationID,
			PrivateKeyPath: cfg.GitHub.App.PrivateKeyPath,
			Timeout:        cfg.GitHub.RequestTimeout,
		})
		if err != nil {
			return nil, false, fmt.Errorf("build github app client: %w", err)
		}
		httpClient = appClient
		// The App transport injects its own credential.
		staticToken = ""
	} else {
		httpClient = &http.Client{Timeout: cfg.GitHub.RequestTimeout}
	}
	hasCredential := cfg.GitHub.App.Configured() || staticToken != ""

	restClient, err := githubapi.NewClient(githubapi.ClientConfig{
		BaseURL:    cfg.GitHub.APIBaseURL,
		Token:      staticToken,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, false, fmt.Errorf("build github rest client: %w", err)
	}

	rateLimitClient, err := githubapi.NewRateLimitClient(httpClient, cfg.GitHub.APIBaseURL, staticToken)
	if err != nil {
		return nil, false, fmt.Errorf("build rate limit client: %w", err)
	}

	graphqlClient := githubapi.NewGraphQLClient(httpClient, cfg.GitHub.GraphQLURL, staticToken, hasCredential)

	aggregator := insights.NewAggregator(restClient, graphqlClient, rateLimitClient, insights.AggregatorConfig{
		Limits: insights.Limits{
			RepoPageSize:       cfg.Limits.RepoPageSize,
			EventSampleSize:    cfg.Limits.EventSampleSize,
			IssueSampleSize:    cfg.Limits.IssueSampleSize,
			LanguageRepoCap:    cfg.Limits.LanguageRepoCap,
			LanguageWindowSize: cfg.Limits.LanguageWindowSize,
		},
		Badges: insights.BadgeThresholds{
			RisingStarStars:         cfg.Badges.RisingStarStars,
			StellarStars:            cfg.Badges.StellarStars,
			PRContributorMerged:     cfg.Badges.PRContributorMerged,
			HighMergeRatio:          cfg.Badges.HighMergeRatio,
			ActiveCommitterContribs: cfg.Badges.ActiveCommitterContribs,
		},
		Logger: logger,
	})
	return aggregator, hasCredential, nil
}

func logLevel(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
