package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyJob struct {
	name     string
	failures int32
	calls    int32
}

func (j *flakyJob) Name() string     { return j.name }
func (j *flakyJob) Schedule() string { return "0 0 2 * * *" }

func (j *flakyJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failures {
		return errors.New("temporary failure")
	}
	return nil
}

type summarizingJob struct{ flakyJob }

func (j *summarizingJob) LastRunSummary() map[string]interface{} {
	return map[string]interface{}{"products": 3}
}

func TestScheduler_RunJobNowRetries(t *testing.T) {
	s := New(nil, WithRetry(2, time.Millisecond))
	job := &flakyJob{name: "flaky", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), job.calls)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestScheduler_RunJobNowGivesUp(t *testing.T) {
	s := New(nil, WithRetry(1, time.Millisecond))
	job := &flakyJob{name: "broken", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "temporary failure", result.Error)
	assert.Equal(t, int32(2), job.calls)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestScheduler_CancelledContextStopsRetrying(t *testing.T) {
	s := New(nil, WithRetry(5, time.Hour))
	job := &flakyJob{name: "cancelled", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJobNow(ctx, "cancelled")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, context.Canceled.Error())
	assert.Equal(t, int32(1), job.calls)
}

func TestScheduler_RecordsSummary(t *testing.T) {
	s := New(nil, WithRetry(0, 0))
	require.NoError(t, s.AddJob(&summarizingJob{flakyJob{name: "summary"}}))

	result, err := s.RunJobNow(context.Background(), "summary")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Details["products"])
}

func TestScheduler_AddAndRemove(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob(&flakyJob{name: "b"}))
	require.NoError(t, s.AddJob(&flakyJob{name: "a"}))
	assert.Error(t, s.AddJob(&flakyJob{name: "a"}), "duplicate name")
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.RunJobNow(context.Background(), "a")
	assert.Error(t, err)
}

type badScheduleJob struct{ flakyJob }

func (j *badScheduleJob) Schedule() string { return "not a cron expression" }

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(nil)
	err := s.AddJob(&badScheduleJob{flakyJob{name: "bad"}})
	require.Error(t, err)
	assert.Empty(t, s.GetAllJobs())
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.0001)
}
