package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [snapshot_id]",
	Short: "저장된 랭킹 스냅샷 조회",
	Long: `저장된 랭킹 스냅샷 목록을 보거나, id를 주면 해당 스냅샷의 상위 종목을 출력합니다.

Example:
  go run ./cmd/bondmaster history --limit 10
  go run ./cmd/bondmaster history 42 --top 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyLimit int
	historyTop   int
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "목록 개수")
	historyCmd.Flags().IntVar(&historyTop, "top", 30, "스냅샷 출력 행 수 (0 = 전체)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if a.snapshots == nil {
		return fmt.Errorf("history needs DATABASE_URL")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		snap, err := a.snapshots.Get(ctx, id)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("snapshot %d not found", id)
		}

		PrintDoubleSeparator(out)
		PrintKeyValue(out, "Snapshot", fmt.Sprintf("#%d (%s)", snap.ID, snap.Source), 9)
		PrintKeyValue(out, "Fetched", snap.FetchedAt.Local().Format("2006-01-02 15:04:05"), 9)
		PrintKeyValue(out, "Sort", snap.Sort, 9)
		PrintDoubleSeparator(out)
		PrintBondTable(out, snap.Bonds, historyTop)
		return nil
	}

	summaries, err := a.snapshots.List(ctx, historyLimit)
	if err != nil {
		return err
	}

	widths := []int{6, 20, 10, 11, 6, 6, 12}
	PrintTableHeader(out, []string{"ID", "Fetched", "Source", "Sort", "Bonds", "Pages", "Config"}, widths)
	for _, s := range summaries {
		hash := s.ConfigHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		PrintTableRow(out, []string{
			strconv.FormatInt(s.ID, 10),
			s.FetchedAt.Local().Format("2006-01-02 15:04:05"),
			s.Source,
			s.Sort,
			strconv.Itoa(s.BondCount),
			strconv.Itoa(s.Pages),
			hash,
		}, widths)
	}
	return nil
}
