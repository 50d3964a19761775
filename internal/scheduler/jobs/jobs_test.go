package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondmaster/backend/internal/aggregator"
	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/scheduler"
	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/internal/snapshot"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

type fakeRunner struct {
	req aggregator.Request
	res *aggregator.Result
	err error
}

func (r *fakeRunner) Run(ctx context.Context, req aggregator.Request) (*aggregator.Result, error) {
	r.req = req
	return r.res, r.err
}

type fakeSaver struct {
	saved []*snapshot.Snapshot
	err   error
}

func (s *fakeSaver) Save(ctx context.Context, snap *snapshot.Snapshot) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, snap)
	return int64(len(s.saved)), nil
}

type fakeStore struct {
	cfg   scoring.Config
	found bool
	err   error
}

func (s *fakeStore) Get(ctx context.Context, profile string) (scoring.Config, bool, error) {
	return s.cfg, s.found, s.err
}
func (s *fakeStore) Put(ctx context.Context, profile string, cfg scoring.Config) error { return nil }
func (s *fakeStore) Delete(ctx context.Context, profile string) error                  { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Jisilu: config.JisiluConfig{Cookie: "kbz_newcookie=1"},
		Scheduler: config.SchedulerConfig{
			RefreshSchedule: "0 */10 9-15 * * 1-5",
			PruneSchedule:   "0 30 3 * * *",
			Profile:         "weekly",
			Retention:       48 * time.Hour,
		},
	}
}

func sampleResult() *aggregator.Result {
	return &aggregator.Result{
		Bonds:     []contracts.Bond{{ID: "113001", DoubleLow: 113.8}},
		Config:    scoring.DefaultConfig(),
		Sort:      scoring.SortDoubleLow,
		Pages:     1,
		FetchedAt: time.Now(),
	}
}

func TestRefreshJob_StoresSnapshot(t *testing.T) {
	custom := scoring.DefaultConfig()
	custom.Factors.YTM.Weight = 3

	runner := &fakeRunner{res: sampleResult()}
	saver := &fakeSaver{}
	job := NewRefreshJob(runner, &fakeStore{cfg: custom, found: true}, saver, testConfig(), logger.NewNop())

	assert.Equal(t, "ranking_refresh", job.Name())
	assert.Equal(t, "0 */10 9-15 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, "kbz_newcookie=1", runner.req.Cookie)
	require.NotNil(t, runner.req.Config)
	assert.Equal(t, 3.0, runner.req.Config.Factors.YTM.Weight)

	require.Len(t, saver.saved, 1)
	assert.Equal(t, snapshot.SourceScheduler, saver.saved[0].Source)
	assert.Equal(t, 1, saver.saved[0].BondCount)
}

func TestRefreshJob_StoreFailureFallsBackToDefaults(t *testing.T) {
	runner := &fakeRunner{res: sampleResult()}
	job := NewRefreshJob(runner, &fakeStore{err: errors.New("redis down")}, &fakeSaver{}, testConfig(), logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, scoring.DefaultConfig(), *runner.req.Config)
}

func TestRefreshJob_Errors(t *testing.T) {
	tests := []struct {
		name      string
		runErr    error
		saveErr   error
		permanent bool
	}{
		{"auth expired", contracts.NewAuthExpiredError(), nil, true},
		{"missing cookie", contracts.NewInputError("cookie is required"), nil, true},
		{"transport", contracts.NewTransportError(502, "Bad Gateway", nil), nil, false},
		{"save", nil, errors.New("db down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{res: sampleResult(), err: tt.runErr}
			if tt.runErr != nil {
				runner.res = nil
			}
			job := NewRefreshJob(runner, nil, &fakeSaver{err: tt.saveErr}, testConfig(), logger.NewNop())

			err := job.Run(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.permanent, scheduler.IsPermanent(err))
		})
	}
}

type fakePruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (p *fakePruner) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.n, p.err
}

func TestPruneJob(t *testing.T) {
	now := time.Date(2026, 10, 19, 3, 30, 0, 0, time.UTC)
	pruner := &fakePruner{n: 4}
	job := NewPruneJob(pruner, testConfig().Scheduler, logger.NewNop())
	job.now = func() time.Time { return now }

	assert.Equal(t, "snapshot_prune", job.Name())
	assert.Equal(t, "0 30 3 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-48*time.Hour), pruner.cutoff)

	pruner.err = errors.New("db down")
	assert.ErrorContains(t, job.Run(context.Background()), "prune snapshots")
}

func TestPruneJob_RetentionDisabled(t *testing.T) {
	pruner := &fakePruner{}
	cfg := testConfig().Scheduler
	cfg.Retention = 0

	require.NoError(t, NewPruneJob(pruner, cfg, logger.NewNop()).Run(context.Background()))
	assert.True(t, pruner.cutoff.IsZero())
}
