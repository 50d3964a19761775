package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wonny/bondmaster/backend/internal/scoring"
)

// scoreConfigCmd represents the score-config command
var scoreConfigCmd = &cobra.Command{
	Use:   "score-config",
	Short: "점수 설정 프로필 관리 (Redis)",
	Long: `Redis에 저장된 점수 설정 프로필을 조회/저장/초기화합니다.
스케줄러의 refresh 작업은 SCORE_PROFILE 프로필을 사용합니다.

Subcommands:
  show            - 프로필 조회 (없으면 기본값)
  set <file.yaml> - YAML 파일을 검증 후 저장
  reset           - 프로필 삭제 (기본값으로 복귀)

Example:
  go run ./cmd/bondmaster score-config show --profile weekly
  go run ./cmd/bondmaster score-config set weights.yaml --profile weekly`,
}

var (
	scoreConfigShowCmd = &cobra.Command{
		Use:   "show",
		Short: "프로필 조회",
		Args:  cobra.NoArgs,
		RunE:  runScoreConfigShow,
	}

	scoreConfigSetCmd = &cobra.Command{
		Use:   "set <file.yaml>",
		Short: "프로필 저장",
		Args:  cobra.ExactArgs(1),
		RunE:  runScoreConfigSet,
	}

	scoreConfigResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "프로필 삭제",
		Args:  cobra.NoArgs,
		RunE:  runScoreConfigReset,
	}
)

var scoreProfile string

func init() {
	rootCmd.AddCommand(scoreConfigCmd)
	scoreConfigCmd.AddCommand(scoreConfigShowCmd)
	scoreConfigCmd.AddCommand(scoreConfigSetCmd)
	scoreConfigCmd.AddCommand(scoreConfigResetCmd)

	scoreConfigCmd.PersistentFlags().StringVar(&scoreProfile, "profile", scoring.DefaultProfile, "프로필 이름")
}

// profileStore bootstraps and returns the Redis store; callers must close the app
func profileStore(cmd *cobra.Command) (*app, scoring.Store, error) {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	store := a.scoreStore()
	if store == nil {
		a.close()
		return nil, nil, fmt.Errorf("score profiles need REDIS_ENABLED=true")
	}
	return a, store, nil
}

func runScoreConfigShow(cmd *cobra.Command, args []string) error {
	a, store, err := profileStore(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	cfg, found, err := store.Get(cmd.Context(), scoreProfile)
	if err != nil {
		return err
	}
	if !found {
		PrintWarning(cmd.OutOrStdout(), fmt.Sprintf("profile %q not stored, showing defaults", scoreProfile))
		cfg = scoring.DefaultConfig()
	}
	return printConfig(cmd.OutOrStdout(), cfg)
}

func runScoreConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := scoring.LoadFile(args[0])
	if err != nil {
		return err
	}

	a, store, err := profileStore(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := store.Put(cmd.Context(), scoreProfile, cfg); err != nil {
		return err
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("profile %q saved", scoreProfile))
	return printConfig(cmd.OutOrStdout(), cfg)
}

func runScoreConfigReset(cmd *cobra.Command, args []string) error {
	a, store, err := profileStore(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := store.Delete(cmd.Context(), scoreProfile); err != nil {
		return err
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("profile %q reset to defaults", scoreProfile))
	return nil
}

// printConfig prints one row per factor plus the config hash
func printConfig(w io.Writer, cfg scoring.Config) error {
	hash, err := scoring.Hash(cfg)
	if err != nil {
		return err
	}

	widths := []int{20, 8, 8, 14}
	PrintTableHeader(w, []string{"Factor", "Enabled", "Weight", "Direction"}, widths)
	for _, key := range scoring.FactorKeys {
		f := cfg.Factor(key)
		direction := "smaller"
		if f.LargerBetter {
			direction = "larger"
		}
		PrintTableRow(w, []string{
			string(key),
			fmt.Sprintf("%t", f.Enabled),
			fmtFloat(f.Weight),
			direction,
		}, widths)
	}
	PrintSeparator(w)
	PrintKeyValue(w, "Hash", hash[:12], 6)
	return nil
}
