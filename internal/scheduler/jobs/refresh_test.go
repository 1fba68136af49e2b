package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/scheduler"
	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

type refresherFunc func(ctx context.Context) error

func (f refresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

func TestRefreshJob(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantSuccess bool
		wantSkipped bool
	}{
		{"loaded", nil, true, false},
		{"anonymous", contracts.ErrMissingToken, false, true},
		{"stale", contracts.ErrStaleResult, false, true},
		{"service error", &contracts.ServiceError{StatusCode: 502}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scheduler.New(logger.Nop())
			job := NewRefreshJob(refresherFunc(func(ctx context.Context) error { return tt.err }), "@every 10m", logger.Nop())
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJob(context.Background(), job.Name())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
		})
	}
}

func TestRefreshJob_PassesErrorThrough(t *testing.T) {
	want := errors.New("boom")
	job := NewRefreshJob(refresherFunc(func(ctx context.Context) error { return want }), "@hourly", logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), want)
	assert.Equal(t, "@hourly", job.Schedule())
}
