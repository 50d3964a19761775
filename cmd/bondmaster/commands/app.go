package commands

import (
	"context"
	"fmt"

	"github.com/wonny/bondmaster/backend/internal/aggregator"
	"github.com/wonny/bondmaster/backend/internal/external/jisilu"
	"github.com/wonny/bondmaster/backend/internal/external/screen"
	"github.com/wonny/bondmaster/backend/internal/metrics"
	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/internal/snapshot"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/database"
	"github.com/wonny/bondmaster/backend/pkg/logger"
	"github.com/wonny/bondmaster/backend/pkg/redis"
)

// quietLogs keeps stdout clean for machine-readable output
var quietLogs bool

// app holds the shared dependencies of every command
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	redis     *redis.Client
	db        *database.DB         // nil without DATABASE_URL
	snapshots *snapshot.Repository // nil without DATABASE_URL
}

// bootstrap loads config and connects the optional stores.
// Redis and Postgres are optional; a configured but unreachable one is an error.
func bootstrap(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quietLogs:
		cfg.LogLevel = "error"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Redis (no-op client when disabled)
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{cfg: cfg, log: log, redis: rc}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 4. Database (snapshots only)
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		repo := snapshot.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		a.snapshots = repo
		log.Info("Connected to database")
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// limiter returns the shared Redis limiter, nil when Redis is disabled
func (a *app) limiter() *redis.RateLimiter {
	if !a.redis.Enabled() {
		return nil
	}
	return redis.NewRateLimiter(a.redis, "bondmaster")
}

func (a *app) aggregator() *aggregator.Aggregator {
	httpClient := jisilu.NewHTTPClient(a.cfg.Jisilu, a.log, a.limiter()).
		WithObserver(a.metrics.ObserveUpstream)
	source := jisilu.NewClient(httpClient, a.cfg.Jisilu, a.log)
	return aggregator.New(source, a.cfg.Jisilu, a.log, a.metrics)
}

func (a *app) screenClient() *screen.Client {
	httpClient := screen.NewHTTPClient(a.cfg.Screen, a.log, a.limiter()).
		WithObserver(a.metrics.ObserveUpstream)
	return screen.NewClient(httpClient, a.cfg.Screen, a.log)
}

// scoreStore returns the profile store, nil when Redis is disabled
func (a *app) scoreStore() scoring.Store {
	if !a.redis.Enabled() {
		return nil
	}
	return scoring.NewRedisStore(a.redis)
}

// snapshotSaver returns the repository as a Saver, nil without a database
func (a *app) snapshotSaver() snapshot.Saver {
	if a.snapshots == nil {
		return nil
	}
	return a.snapshots
}
