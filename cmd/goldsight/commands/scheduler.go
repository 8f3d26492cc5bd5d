package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HuyPham171-hub/goldsight-web/internal/scheduler"
	"github.com/HuyPham171-hub/goldsight-web/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `예측/평가 배치 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/goldsight scheduler start
  go run ./cmd/goldsight scheduler list
  go run ./cmd/goldsight scheduler run daily_forecast`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- daily_forecast: 매일 06:30 (전체 모델 × FORECAST_HORIZONS 예측 저장)
- weekly_evaluation: 매주 일요일 03:00 (holdout 평가 및 residual std 갱신)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
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

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GoldSight Scheduler ===")

	a, sched, err := initScheduler(true)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	fmt.Println("Registered jobs:")
	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler(false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", jobName, result.Attempts, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

// showStatus 현재 프로세스 기준 통계 (재시작 시 초기화)
func showStatus(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if next, ok := sched.NextRun(jobName); ok {
			fmt.Printf("   Next Run: %s\n", next.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	for _, jobName := range sched.GetAllJobs() {
		if next, ok := sched.NextRun(jobName); ok {
			fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04"))
			continue
		}
		fmt.Printf("  - %s\n", jobName)
	}
}

// initScheduler 앱 의존성 + 예측/평가 작업 등록
func initScheduler(withMetrics bool) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(appOptions{requireDB: true, withMetrics: withMetrics})
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log,
		scheduler.WithRetry(2, time.Minute),
		scheduler.WithMetrics(a.metrics),
	)

	models := a.registry.IDs()
	if err := sched.AddJob(jobs.NewForecastJob(a.service, models, a.horizons(), a.log)); err != nil {
		a.close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewEvaluationJob(a.service, models, a.cfg.Forecast.Holdout, a.log)); err != nil {
		a.close()
		return nil, nil, err
	}

	return a, sched, nil
}

