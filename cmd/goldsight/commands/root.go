package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goldsight",
	Short: "GoldSight - 금 가격 다단계 예측 시스템",
	Long: `GoldSight Unified CLI

다중 주기 거시/시장 시계열로 금 현물가를 7/21/30일 앞까지 자기회귀 예측.

Usage:
  go run ./cmd/goldsight [command]

Examples:
  go run ./cmd/goldsight forecast run --model gru_multivariate --horizon 7
  go run ./cmd/goldsight forecast evaluate --models gru_multivariate,lstm_multivariate
  go run ./cmd/goldsight api
  go run ./cmd/goldsight scheduler start
  go run ./cmd/goldsight db migrate`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// config.Load가 유일한 환경변수 리더이므로 플래그는 환경변수로 전달
		if cmd.Flags().Changed("env") {
			os.Setenv("ENV", env) //nolint:errcheck
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug") //nolint:errcheck
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
