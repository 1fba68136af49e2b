package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/api"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/api/handlers"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/scheduler"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard server",
	Long: `Starts the local dashboard server.

This command:
- restores the persisted session
- loads the MMM dataset whenever a session becomes authenticated
- serves the guarded views, derived metrics and session events
- optionally reloads the dataset on REFRESH_SCHEDULE

Endpoints:
  GET  /health                  - Health check
  GET  /, /login, /register     - Anonymous-only views
  GET  /dashboard               - Session, fetch state and derived metrics
  POST /api/auth/login          - Sign in
  POST /api/auth/register       - Create an account
  POST /api/auth/logout         - Sign out
  GET  /api/auth/session        - Current session
  POST /api/mmm/refresh         - Reload the dataset
  GET  /api/mmm/contributions   - Channel contributions
  GET  /api/mmm/response-curves - Response curves
  GET  /api/mmm/time-series     - Monthly contributions
  GET  /api/mmm/account         - Account summary
  GET  /api/events?view=/path   - Session and dashboard events (websocket)
  GET  /api/jobs                - Scheduled jobs

Example:
  go run ./cmd/dashboard serve
  go run ./cmd/dashboard serve --port 8090`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "dashboard server port (default PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire config, logger, clients and session
	rt, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.close()

	if servePort != "" {
		rt.cfg.Port = servePort
	}
	log := rt.log

	log.WithFields(map[string]interface{}{
		"port":        rt.cfg.Port,
		"api":         rt.cfg.API.BaseURL,
		"token_store": rt.cfg.Session.TokenStore,
	}).Info("Initializing dashboard server")

	// 2. Controller owns the session lifecycle
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	controllerDone := make(chan error, 1)
	go func() {
		controllerDone <- rt.controller.Run(runCtx)
	}()

	// 3. Optional scheduled reload
	var sched *scheduler.Scheduler
	if rt.cfg.RefreshSchedule != "" {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewRefreshJob(rt.controller, rt.cfg.RefreshSchedule, log)); err != nil {
			return fmt.Errorf("schedule refresh job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 4. Router and server
	h := api.Handlers{
		Session:   handlers.NewSessionHandler(rt.sessions, log),
		Dashboard: handlers.NewDashboardHandler(rt.controller, log),
		Events:    handlers.NewEventsHandler(rt.controller, log),
		Jobs:      handlers.NewJobsHandler(sched, log),
		Health:    handlers.NewHealthHandler(rt.sessions, rt.httpClient),
	}
	router := api.NewRouter(h, rt.sessions, rt.metrics, log)
	server := api.New(rt.cfg, log, router)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("Dashboard server started successfully")
	fmt.Fprintf(os.Stderr, "\n✅ Dashboard running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Fprintln(os.Stderr, "\nPress Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	cancelRun()
	if err := <-controllerDone; err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("Controller stopped with error")
	}

	log.Info("Server stopped")
	return nil
}
