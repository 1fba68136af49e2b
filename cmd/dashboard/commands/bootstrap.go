package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/app"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/external/mmmapi"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/fetcher"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/session"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/httputil"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/metrics"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/redis"
)

// runtime is the wired object graph shared by every command
type runtime struct {
	cfg        *config.Config
	log        *logger.Logger
	metrics    *metrics.Metrics
	httpClient *httputil.Client
	api        *mmmapi.Client
	redis      *redis.Client
	sessions   *session.Manager
	fetcher    *fetcher.Fetcher
	controller *app.Controller
}

// bootstrap loads config and wires the session, fetcher and controller.
// logOut receives log output; CLI commands pass stderr so stdout stays a clean report.
func bootstrap(ctx context.Context, logOut io.Writer) (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.NewWithWriter(cfg, logOut)

	// 3. Metrics and HTTP client
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	httpClient := httputil.New(cfg, log).WithMetrics(m)
	api := mmmapi.NewClient(cfg.API.BaseURL, httpClient, log)

	// 4. Token store
	redisClient, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	store, err := session.NewTokenStore(cfg, redisClient)
	if err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("create token store: %w", err)
	}

	// 5. Session, fetcher, controller
	sessions := session.NewManager(api, store, log).WithMetrics(m)
	f := fetcher.New(api, log).WithMetrics(m)

	return &runtime{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		httpClient: httpClient,
		api:        api,
		redis:      redisClient,
		sessions:   sessions,
		fetcher:    f,
		controller: app.NewController(sessions, f, api, log),
	}, nil
}

// bootstrapCLI wires the runtime for a one-shot command
func bootstrapCLI(ctx context.Context) (*runtime, error) {
	return bootstrap(ctx, os.Stderr)
}

// requireSession runs the startup session check and requires an authenticated session
func (rt *runtime) requireSession(ctx context.Context) error {
	s, err := rt.sessions.Restore(ctx)
	if err != nil {
		rt.log.WithError(err).Warn("Session restore failed")
	}
	if !s.IsAuthenticated() {
		return fmt.Errorf("not signed in: run 'dashboard login' first")
	}
	return nil
}

func (rt *runtime) close() {
	rt.fetcher.Close()
	rt.sessions.Close()
	if err := rt.redis.Close(); err != nil {
		rt.log.WithError(err).Warn("Failed to close redis client")
	}
}
