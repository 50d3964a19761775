package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondmaster/backend/internal/api"
	"github.com/wonny/bondmaster/backend/internal/api/handlers"
	"github.com/wonny/bondmaster/backend/internal/scheduler"
	"github.com/wonny/bondmaster/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET    /health                      - Health check (redis, database)
  GET    /metrics                     - Prometheus metrics
  POST   /api/jisilu/bonds            - 전체 수집 + 스코어링 {cookie, scoreConfig?, sort?}
  POST   /api/jisilu/bonds/export     - 같은 결과를 XLSX로
  GET    /api/scoring/config          - 쿠키의 점수 설정 (없으면 기본값)
  POST   /api/scoring/config          - 점수 설정 저장 (쿠키)
  DELETE /api/scoring/config          - 점수 설정 초기화
  GET|PUT|DELETE /api/scoring/profiles/{name} - Redis 프로필
  POST   /api/bonds/screen            - 외부 선별 서비스
  GET    /api/snapshots[/latest|/{id}] - 랭킹 스냅샷 (DATABASE_URL 필요)

Example:
  go run ./cmd/bondmaster api
  go run ./cmd/bondmaster api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러를 같은 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Bondmaster API Server ===")

	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// Handlers
	agg := a.aggregator()
	deps := api.Deps{
		Bonds:   handlers.NewBondsHandler(agg, a.snapshotSaver(), log),
		Scoring: handlers.NewScoringHandler(a.scoreStore(), log),
		Screen:  handlers.NewScreenHandler(a.screenClient(), log),
		Metrics: a.metrics,
		Checks:  map[string]api.HealthCheck{"redis": a.redis.Ping},
		Logger:  log,
	}
	if a.snapshots != nil {
		deps.Snapshots = handlers.NewSnapshotHandler(a.snapshots, log)
		deps.Checks["database"] = func(ctx context.Context) error {
			_, err := a.db.HealthCheck(ctx)
			return err
		}
	}

	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched, err = newScheduler(a, agg)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, log, api.NewRouter(deps))

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	select {
	case <-cmd.Context().Done():
	case err := <-errCh:
		return err
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// newScheduler registers the refresh and prune jobs; both need a database
func newScheduler(a *app, runner jobs.Runner) (*scheduler.Scheduler, error) {
	if a.snapshots == nil {
		return nil, fmt.Errorf("scheduler needs DATABASE_URL to store snapshots")
	}

	sched := scheduler.New(a.cfg.Scheduler, a.log, a.metrics)

	if err := sched.AddJob(jobs.NewRefreshJob(runner, a.scoreStore(), a.snapshots, a.cfg, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewPruneJob(a.snapshots, a.cfg.Scheduler, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}
