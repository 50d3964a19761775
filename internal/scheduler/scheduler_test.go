package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondmaster/backend/internal/metrics"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string

	mu    sync.Mutex
	calls int
	errs  []error // returned in order, nil afterwards
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if len(j.errs) == 0 {
		return nil
	}
	err := j.errs[0]
	j.errs = j.errs[1:]
	return err
}

func (j *fakeJob) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func newTestScheduler(retries int) *Scheduler {
	return New(config.SchedulerConfig{
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
		JobTimeout: time.Second,
	}, logger.NewNop(), metrics.New())
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 */5 * * * *"}))

	err := s.AddJob(&fakeJob{name: "a", schedule: "0 */5 * * * *"})
	assert.ErrorContains(t, err, "already registered")

	err = s.AddJob(&fakeJob{name: "b", schedule: "not a cron"})
	assert.Error(t, err)

	assert.Len(t, s.Jobs(), 1)
}

func TestRunJob_RetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler(2)
	job := &fakeJob{name: "flaky", schedule: "0 0 * * * *", errs: []error{errors.New("boom"), errors.New("boom")}}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Empty(t, res.Error)
	assert.Equal(t, 3, job.Calls())
}

func TestRunJob_GivesUpAfterMaxRetries(t *testing.T) {
	s := newTestScheduler(1)
	job := &fakeJob{name: "broken", schedule: "0 0 * * * *", errs: []error{errors.New("one"), errors.New("two"), errors.New("three")}}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob(context.Background(), "broken")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "two", res.Error)
}

func TestRunJob_PermanentErrorNotRetried(t *testing.T) {
	s := newTestScheduler(3)
	job := &fakeJob{name: "auth", schedule: "0 0 * * * *", errs: []error{Permanent(errors.New("cookie expired"))}}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob(context.Background(), "auth")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "cookie expired", res.Error)
}

func TestRunJob_CanceledContextStopsRetries(t *testing.T) {
	s := newTestScheduler(5)
	job := &fakeJob{name: "slow", schedule: "0 0 * * * *", errs: []error{errors.New("x"), errors.New("x"), errors.New("x")}}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.RunJob(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
}

func TestRunJob_Unknown(t *testing.T) {
	s := newTestScheduler(0)
	_, err := s.RunJob(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestHistoryAndJobs(t *testing.T) {
	s := newTestScheduler(0)
	job := &fakeJob{name: "h", schedule: "0 0 * * * *", errs: []error{errors.New("first")}}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunJob(context.Background(), "h")
	_, _ = s.RunJob(context.Background(), "h")

	results, err := s.History("h", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success, "newest first")
	assert.False(t, results[1].Success)

	infos := s.Jobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "h", infos[0].Name)
	assert.Equal(t, 0.5, infos[0].SuccessRate)
	require.NotNil(t, infos[0].LastRun)
	assert.True(t, infos[0].LastRun.Success)

	_, err = s.History("missing", 1)
	assert.Error(t, err)
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "r", schedule: "0 0 * * * *"}))

	require.NoError(t, s.RemoveJob("r"))
	assert.Empty(t, s.Jobs())
	assert.Error(t, s.RemoveJob("r"))

	// re-registering after removal is allowed
	require.NoError(t, s.AddJob(&fakeJob{name: "r", schedule: "0 0 * * * *"}))
}

func TestStartStop_FiresOnSchedule(t *testing.T) {
	s := newTestScheduler(0)
	job := &fakeJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool { return job.Calls() > 0 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{JobName: "x"}
	assert.Zero(t, h.SuccessRate())
	assert.Empty(t, h.Latest(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0, Attempts: i})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Equal(t, 10, h.Results[0].Attempts, "oldest dropped")
	assert.Equal(t, 0.5, h.SuccessRate())

	latest := h.Latest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, maxHistory+9, latest[0].Attempts)
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))

	base := errors.New("bad cookie")
	err := Permanent(base)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}
