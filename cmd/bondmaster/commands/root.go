package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bondmaster",
	Short: "Bondmaster - 전환사채 수집/스코어링 백엔드",
	Long: `Bondmaster Unified CLI

집사록(jisilu) 전환사채 목록을 세션 쿠키로 전부 수집하고,
강제상환 정보를 붙인 뒤 백분위 점수로 순위를 매깁니다.

Usage:
  go run ./cmd/bondmaster [command]

Examples:
  go run ./cmd/bondmaster api
  go run ./cmd/bondmaster fetch --cookie "kbz_newcookie=..." --top 20
  go run ./cmd/bondmaster score-config show
  go run ./cmd/bondmaster scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
