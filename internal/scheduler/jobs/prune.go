package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// Pruner deletes snapshots older than a cutoff
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneJob removes expired ranking snapshots
type PruneJob struct {
	pruner    Pruner
	retention time.Duration
	schedule  string
	logger    *logger.Logger
	now       func() time.Time
}

// NewPruneJob creates a new prune job
func NewPruneJob(pruner Pruner, cfg config.SchedulerConfig, log *logger.Logger) *PruneJob {
	return &PruneJob{
		pruner:    pruner,
		retention: cfg.Retention,
		schedule:  cfg.PruneSchedule,
		logger:    log.Component("prune_job"),
		now:       time.Now,
	}
}

// Name returns the job name
func (j *PruneJob) Name() string {
	return "snapshot_prune"
}

// Schedule returns the cron schedule
func (j *PruneJob) Schedule() string {
	return j.schedule
}

// Run executes the prune
func (j *PruneJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		j.logger.Debug("Retention disabled, nothing to prune")
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	n, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	if n > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": n,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Snapshot prune completed")
	}
	return nil
}
