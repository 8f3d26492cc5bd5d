package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "금 가격 예측 / 모델 평가",
	Long: `금 현물가 자기회귀 예측과 모델 비교를 실행합니다.

Subcommands:
  run       - 예측 실행 (7/21/30일)
  evaluate  - 모델 백테스트 비교 (R², RMSE, MAE)
  models    - 매니페스트 모델 목록

원천 시계열은 기본적으로 market.observations 테이블에서 읽고,
--csv를 주면 date,source,feature,value 형식 CSV 파일에서 읽습니다.

Example:
  go run ./cmd/goldsight forecast run --model gru_multivariate --horizon 30
  go run ./cmd/goldsight forecast run --csv data/history.csv
  go run ./cmd/goldsight forecast evaluate --models gru_multivariate,lstm_multivariate --holdout 90`,
}

var (
	forecastRunCmd = &cobra.Command{
		Use:   "run",
		Short: "예측 실행",
		RunE:  runForecast,
	}

	forecastEvaluateCmd = &cobra.Command{
		Use:   "evaluate",
		Short: "모델 비교 평가",
		RunE:  runEvaluate,
	}

	forecastModelsCmd = &cobra.Command{
		Use:   "models",
		Short: "모델 목록",
		RunE:  listModels,
	}
)

var (
	forecastModel   string
	forecastHorizon string
	forecastCSV     string
	evaluateModels  []string
	evaluateHoldout int
	evaluateRefresh bool
)

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.AddCommand(forecastRunCmd)
	forecastCmd.AddCommand(forecastEvaluateCmd)
	forecastCmd.AddCommand(forecastModelsCmd)

	forecastCmd.PersistentFlags().StringVar(&forecastCSV, "csv", "", "원천 시계열 CSV 파일 (없으면 DB)")

	forecastRunCmd.Flags().StringVar(&forecastModel, "model", "", "모델 ID (기본: FORECAST_DEFAULT_MODEL)")
	forecastRunCmd.Flags().StringVar(&forecastHorizon, "horizon", "7", "예측 기간 (7, 21, 30)")

	forecastEvaluateCmd.Flags().StringSliceVar(&evaluateModels, "models", nil, "비교할 모델 ID (기본: 전체)")
	forecastEvaluateCmd.Flags().IntVar(&evaluateHoldout, "holdout", 0, "평가 행 수 (기본: FORECAST_HOLDOUT)")
	forecastEvaluateCmd.Flags().BoolVar(&evaluateRefresh, "refresh-std", false, "평가 결과로 residual std 갱신 및 저장")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runForecast(cmd *cobra.Command, args []string) error {
	horizon, err := contracts.ParseHorizon(forecastHorizon)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{csvPath: forecastCSV})
	if err != nil {
		return err
	}
	defer a.close()

	model := forecastModel
	if model == "" {
		model = a.cfg.Forecast.DefaultModel
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	result, err := a.service.Forecast(ctx, model, horizon)
	if err != nil {
		return fmt.Errorf("forecast %s/%s: %w", model, horizon, err)
	}

	printForecast(result)
	PrintSuccess(fmt.Sprintf("Forecast %s completed in %.2fs", result.RunID, time.Since(start).Seconds()))
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{csvPath: forecastCSV})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	if evaluateRefresh {
		ids := evaluateModels
		if len(ids) == 0 {
			ids = a.registry.IDs()
		}
		var reports []contracts.EvaluationReport
		for _, id := range ids {
			r, err := a.service.Evaluate(ctx, strings.TrimSpace(id), evaluateHoldout)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", id, err)
			}
			reports = append(reports, *r)
		}
		printComparison(reports)
		return nil
	}

	reports, err := a.service.Compare(ctx, evaluateModels, evaluateHoldout)
	if err != nil {
		return err
	}
	printComparison(reports)
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.close()

	printModels(a.service.Models())
	return nil
}
