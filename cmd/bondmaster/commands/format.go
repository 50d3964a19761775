package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row. CJK names are padded by rune count.
func PrintTableRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	for i, val := range values {
		b.WriteString(pad(val, widths[i]))
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

var bondColumns = []string{"#", "Code", "Name", "Price", "Prem%", "DblLow", "YTM%", "Score", "Redeem"}
var bondWidths = []int{4, 8, 10, 8, 7, 8, 7, 7, 10}

// PrintBondTable prints up to top bonds (all when top <= 0)
func PrintBondTable(w io.Writer, bonds []contracts.Bond, top int) {
	if top <= 0 || top > len(bonds) {
		top = len(bonds)
	}

	PrintTableHeader(w, bondColumns, bondWidths)
	for i, b := range bonds[:top] {
		PrintTableRow(w, []string{
			strconv.Itoa(i + 1),
			b.Code,
			b.Name,
			fmtFloat(b.Price),
			fmtFloat(b.PremiumRatePct),
			fmtFloat(b.DoubleLow),
			fmtOpt(b.YieldToMaturityPct),
			fmtOpt(b.TotalScore),
			b.RedeemStatus,
		}, bondWidths)
	}
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// fmtOpt renders a missing value as "-"
func fmtOpt(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmtFloat(*p)
}
