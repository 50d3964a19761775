package commands

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/bondmaster/backend/internal/external/screen"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "외부 선별 서비스 호출",
	Long: `BONDS_API_BASE의 선별 서비스에 조건을 보내고 결과를 출력합니다.
설정하지 않은 조건은 서비스 기본값을 따릅니다.

Example:
  go run ./cmd/bondmaster screen --max-price 130 --max-premium 30 --top 10
  go run ./cmd/bondmaster screen --hold 113001,128001 --json`,
	RunE: runScreen,
}

var (
	screenMaxPrice    float64
	screenMaxPremium  float64
	screenMinTurnover float64
	screenYearLeft    float64
	screenRating      string
	screenTop         int
	screenExclude     []string
	screenHold        []string
	screenJSON        bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	f := screenCmd.Flags()
	f.Float64Var(&screenMaxPrice, "max-price", 0, "최대 가격")
	f.Float64Var(&screenMaxPremium, "max-premium", 0, "최대 전환 프리미엄 (%)")
	f.Float64Var(&screenMinTurnover, "min-turnover", 0, "최소 회전율 (%)")
	f.Float64Var(&screenYearLeft, "year-left", 0, "최소 잔존 연수")
	f.StringVar(&screenRating, "rating", "", "신용등급 패턴 (예: ^AA)")
	f.IntVar(&screenTop, "top", 0, "선택 개수")
	f.StringSliceVar(&screenExclude, "exclude", nil, "제외할 bond id")
	f.StringSliceVar(&screenHold, "hold", nil, "보유 중인 bond id (매매 제안용)")
	f.BoolVar(&screenJSON, "json", false, "JSON으로 출력")
}

func runScreen(cmd *cobra.Command, args []string) error {
	quietLogs = screenJSON
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.screenClient().Screen(cmd.Context(), screenRequest(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if screenJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	PrintDoubleSeparator(out)
	PrintKeyValue(out, "Total", strconv.Itoa(res.Summary.TotalBonds), 8)
	PrintKeyValue(out, "Selected", strconv.Itoa(res.Summary.SelectedCount), 8)
	PrintDoubleSeparator(out)
	PrintBondTable(out, res.Bonds, 0)

	if len(res.Sell) > 0 || len(res.Buy) > 0 {
		PrintSeparator(out)
		PrintKeyValue(out, "Sell", tradeIDs(res.Sell), 8)
		PrintKeyValue(out, "Buy", tradeIDs(res.Buy), 8)
	}
	return nil
}

// screenRequest sends only the flags the user set
func screenRequest(cmd *cobra.Command) screen.Request {
	flags := cmd.Flags()
	req := screen.Request{
		RatingPattern:  screenRating,
		TopN:           screenTop,
		ExcludeBondIDs: screenExclude,
		HoldIDs:        screenHold,
	}
	if flags.Changed("max-price") {
		req.MaxPrice = &screenMaxPrice
	}
	if flags.Changed("max-premium") {
		req.MaxPremiumRate = &screenMaxPremium
	}
	if flags.Changed("min-turnover") {
		req.MinTurnoverRate = &screenMinTurnover
	}
	if flags.Changed("year-left") {
		req.YearLeft = &screenYearLeft
	}
	return req
}

func tradeIDs(trades []screen.Trade) string {
	if len(trades) == 0 {
		return "-"
	}
	ids := make([]string, len(trades))
	for i, t := range trades {
		ids[i] = t.BondID + " " + t.BondName
	}
	return strings.Join(ids, ", ")
}
