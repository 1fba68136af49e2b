package jobs

import (
	"context"
	"errors"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/scheduler"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

// Refresher reloads the dashboard dataset
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshJob reloads the MMM dataset on a schedule
type RefreshJob struct {
	refresher Refresher
	schedule  string
	logger    *logger.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(refresher Refresher, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "mmm_refresh"
}

// Schedule returns the configured cron expression
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run reloads once. Without a session there is nothing to load.
func (j *RefreshJob) Run(ctx context.Context) error {
	err := j.refresher.Refresh(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, contracts.ErrMissingToken):
		return scheduler.Skip("no authenticated session")
	case errors.Is(err, contracts.ErrStaleResult):
		return scheduler.Skip("session changed during refresh")
	default:
		j.logger.WithError(err).Warn("Scheduled refresh failed")
		return err
	}
}
