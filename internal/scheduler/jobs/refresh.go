package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/bondmaster/backend/internal/aggregator"
	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/scheduler"
	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/internal/snapshot"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// Runner runs one aggregation
type Runner interface {
	Run(ctx context.Context, req aggregator.Request) (*aggregator.Result, error)
}

// RefreshJob aggregates with the configured session and stores a snapshot
// ⭐ SSOT: 정기 랭킹 스냅샷은 이 Job에서만
type RefreshJob struct {
	runner   Runner
	store    scoring.Store
	saver    snapshot.Saver
	cookie   string
	profile  string
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates a refresh job. store may be nil (defaults are used).
func NewRefreshJob(runner Runner, store scoring.Store, saver snapshot.Saver, cfg *config.Config, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		runner:   runner,
		store:    store,
		saver:    saver,
		cookie:   cfg.Jisilu.Cookie,
		profile:  cfg.Scheduler.Profile,
		schedule: cfg.Scheduler.RefreshSchedule,
		logger:   log.Component("refresh_job"),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "ranking_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh
func (j *RefreshJob) Run(ctx context.Context) error {
	cfg, err := scoring.Resolve(ctx, j.store, j.profile)
	if err != nil {
		j.logger.WithError(err).Warn("Score profile unavailable, using defaults")
		cfg = scoring.DefaultConfig()
	}

	res, err := j.runner.Run(ctx, aggregator.Request{Cookie: j.cookie, Config: &cfg})
	if err != nil {
		switch contracts.KindOf(err) {
		case contracts.KindInput, contracts.KindAuthExpired:
			// 쿠키 갱신 전까지 재시도 무의미
			return scheduler.Permanent(err)
		}
		return err
	}

	id, err := j.saver.Save(ctx, snapshot.FromResult(res, snapshot.SourceScheduler))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"snapshot_id": id,
		"bonds":       len(res.Bonds),
		"profile":     j.profile,
	}).Info("Ranking snapshot stored")

	return nil
}
