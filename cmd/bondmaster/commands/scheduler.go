package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 랭킹 스냅샷 스케줄러를 시작하거나 작업을 관리합니다.
DATABASE_URL과 JISILU_COOKIE가 필요합니다.

등록되는 작업:
- ranking_refresh: REFRESH_SCHEDULE (기본 평일 9-15시 10분마다)
- snapshot_prune: PRUNE_SCHEDULE (기본 매일 03:30, SNAPSHOT_RETENTION 초과분 삭제)

Subcommands:
  start  - 스케줄러 시작 (Ctrl+C로 종료)
  list   - 등록된 작업 목록
  run    - 특정 작업 즉시 실행

Example:
  go run ./cmd/bondmaster scheduler start
  go run ./cmd/bondmaster scheduler run ranking_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Bondmaster Scheduler ===")

	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a, a.aggregator())
	if err != nil {
		return err
	}

	sched.Start()

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Scheduler started")
	for _, job := range sched.Jobs() {
		PrintKeyValue(out, job.Name, job.Schedule, 16)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a, a.aggregator())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	widths := []int{18, 22, 20}
	PrintTableHeader(out, []string{"Job", "Schedule", "Next"}, widths)
	for _, job := range sched.Jobs() {
		next := "-"
		if !job.Next.IsZero() {
			next = job.Next.Format("2006-01-02 15:04:05")
		}
		PrintTableRow(out, []string{job.Name, job.Schedule, next}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a, a.aggregator())
	if err != nil {
		return err
	}

	res, err := sched.RunJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	PrintKeyValue(out, "Job", res.JobName, 9)
	PrintKeyValue(out, "Attempts", fmt.Sprintf("%d", res.Attempts), 9)
	PrintKeyValue(out, "Duration", res.Duration.String(), 9)
	if !res.Success {
		return fmt.Errorf("job %s failed: %s", res.JobName, res.Error)
	}
	PrintSuccess(out, "Job completed")
	return nil
}
