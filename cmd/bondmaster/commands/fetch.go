package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bondmaster/backend/internal/aggregator"
	"github.com/wonny/bondmaster/backend/internal/export"
	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/internal/snapshot"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "전환사채 전체 수집 + 스코어링 (1회)",
	Long: `세션 쿠키로 전체 목록을 수집하고 점수를 매겨 출력합니다.

점수 설정 우선순위: --score-config 파일 → --profile (Redis) → 기본값

Example:
  go run ./cmd/bondmaster fetch --cookie "kbz_newcookie=..." --top 20
  go run ./cmd/bondmaster fetch --score-config weights.yaml --sort totalScore --xlsx bonds.xlsx
  go run ./cmd/bondmaster fetch --json > bonds.json`,
	RunE: runFetch,
}

var (
	fetchCookie      string
	fetchScoreConfig string
	fetchProfile     string
	fetchSort        string
	fetchTop         int
	fetchXLSX        string
	fetchJSON        bool
	fetchSave        bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchCookie, "cookie", "", "집사록 세션 쿠키 (기본값: JISILU_COOKIE)")
	fetchCmd.Flags().StringVar(&fetchScoreConfig, "score-config", "", "점수 설정 YAML 파일")
	fetchCmd.Flags().StringVar(&fetchProfile, "profile", "", "Redis 점수 프로필")
	fetchCmd.Flags().StringVar(&fetchSort, "sort", "doubleLow", "정렬 (doubleLow|totalScore)")
	fetchCmd.Flags().IntVar(&fetchTop, "top", 30, "출력 행 수 (0 = 전체)")
	fetchCmd.Flags().StringVar(&fetchXLSX, "xlsx", "", "XLSX 저장 경로")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "JSON으로 출력")
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "스냅샷 저장 (DATABASE_URL 필요)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	order, err := scoring.ParseSortOrder(fetchSort)
	if err != nil {
		return err
	}

	quietLogs = fetchJSON
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cookie := fetchCookie
	if cookie == "" {
		cookie = a.cfg.Jisilu.Cookie
	}

	cfg, err := fetchConfig(cmd, a)
	if err != nil {
		return err
	}

	res, err := a.aggregator().Run(ctx, aggregator.Request{Cookie: cookie, Config: &cfg, Sort: order})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if fetchXLSX != "" {
		if err := writeXLSXFile(fetchXLSX, res); err != nil {
			return err
		}
	}

	if fetchSave {
		if a.snapshots == nil {
			return fmt.Errorf("--save needs DATABASE_URL")
		}
		id, err := a.snapshots.Save(ctx, snapshot.FromResult(res, snapshot.SourceCLI))
		if err != nil {
			return err
		}
		a.log.WithField("snapshot_id", id).Info("Snapshot stored")
	}

	if fetchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	PrintDoubleSeparator(out)
	PrintKeyValue(out, "Bonds", fmt.Sprintf("%d", len(res.Bonds)), 10)
	PrintKeyValue(out, "Pages", fmt.Sprintf("%d (%s)", res.Pages, res.StopReason), 10)
	PrintKeyValue(out, "Sort", string(res.Sort), 10)
	PrintKeyValue(out, "Config", res.ConfigHash[:12], 10)
	PrintKeyValue(out, "Duration", res.Duration.Round(time.Millisecond).String(), 10)
	PrintDoubleSeparator(out)
	if res.Degraded {
		PrintWarning(out, "강제상환 정보를 불러오지 못했습니다 (redeem 컬럼 비어 있음)")
	}
	PrintBondTable(out, res.Bonds, fetchTop)
	if fetchXLSX != "" {
		PrintSuccess(out, "Saved "+fetchXLSX)
	}
	return nil
}

// fetchConfig applies --score-config → --profile → defaults
func fetchConfig(cmd *cobra.Command, a *app) (scoring.Config, error) {
	if fetchScoreConfig != "" {
		return scoring.LoadFile(fetchScoreConfig)
	}
	if fetchProfile != "" {
		if a.scoreStore() == nil {
			return scoring.Config{}, fmt.Errorf("--profile needs REDIS_ENABLED=true")
		}
		return scoring.Resolve(cmd.Context(), a.scoreStore(), fetchProfile)
	}
	return scoring.DefaultConfig(), nil
}

func writeXLSXFile(path string, res *aggregator.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteXLSX(f, res.Bonds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
