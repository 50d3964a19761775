// Package export renders ranked bonds as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

// SheetName is the worksheet holding the ranking
const SheetName = "Bonds"

// Columns is the header row, in order
var Columns = []string{
	"Rank", "Code", "Name", "Price", "Change %", "Premium %", "Double Low",
	"Bond Value", "Pure Bond Premium %", "YTM %", "Issued Amount", "Remaining Years",
	"Rating", "Volume", "Turnover %", "Redeem Status",
	"S(YTM)", "S(Premium)", "S(Amount)", "S(PureBond)", "Total Score",
}

// WriteXLSX writes bonds, in their current order, as one worksheet.
// Missing optional values are left blank.
func WriteXLSX(w io.Writer, bonds []contracts.Bond) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, b := range bonds {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			i + 1, b.Code, b.Name, b.Price, b.PriceChangePct, b.PremiumRatePct, b.DoubleLow,
			opt(b.BondValue), opt(b.PureBondPremiumRate), opt(b.YieldToMaturityPct),
			opt(b.CurrentIssuedAmount), b.RemainingYears,
			b.Rating, b.Volume, opt(b.TurnoverRatePct), b.RedeemStatus,
			opt(b.ScoreYTM), opt(b.ScorePremiumRate), opt(b.ScoreIssuedAmount),
			opt(b.ScorePureBondPremium), opt(b.TotalScore),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// opt turns a nil optional into an empty cell
func opt(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
