package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushLimaye7/login-registration-dashboard/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	err      error
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "*/5 * * * *"}))
	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "0 */5 * * * *"}))
	require.NoError(t, s.AddJob(&countingJob{name: "c", schedule: "@every 1m"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a schedule"}))

	assert.Equal(t, []string{"a", "b", "c"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("b"))
	assert.Error(t, s.RemoveJob("b"))
	assert.Equal(t, []string{"a", "c"}, s.GetAllJobs())
}

func TestRunJob_SingleAttempt(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "flaky", schedule: "@hourly", err: errors.New("api down")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "api down", result.Error)
	assert.Equal(t, int32(1), job.runs.Load(), "failures are not retried")

	_, err = s.RunJob(context.Background(), "missing")
	assert.Error(t, err)
}

func TestJobStats(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "refresh", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))
	ctx := context.Background()

	_, _ = s.RunJob(ctx, "refresh")
	job.err = errors.New("boom")
	_, _ = s.RunJob(ctx, "refresh")
	job.err = Skip("nobody logged in")
	_, _ = s.RunJob(ctx, "refresh")

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, 3, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 1, stats.SkippedCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastRun)
	assert.Nil(t, stats.LastFailure, "last run was a skip")

	history, err := s.GetJobHistory("refresh")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[2].Skipped)
	assert.Equal(t, "nobody logged in", history[2].Error)
}

func TestJobHistory_Bounded(t *testing.T) {
	var h JobHistory
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: true})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
	assert.Equal(t, 0.0, (&JobHistory{}).GetSuccessRate())
}

func TestStartStop(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))
	s.Start()
	s.Stop()
}
