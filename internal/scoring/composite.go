package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

// SortOrder selects the final list order
type SortOrder string

const (
	// SortDoubleLow is the default: doubleLow ascending, ties keep input order
	SortDoubleLow SortOrder = "doubleLow"
	// SortTotalScore orders by composite score, best first
	SortTotalScore SortOrder = "totalScore"
)

// ParseSortOrder accepts "", "doubleLow" or "totalScore"
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortDoubleLow:
		return SortDoubleLow, nil
	case SortTotalScore:
		return SortTotalScore, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want %s or %s)", s, SortDoubleLow, SortTotalScore)
}

// FactorScore is one factor's contribution to a record's total
type FactorScore struct {
	Score   float64
	Weight  float64
	Enabled bool
}

// Composite sums score × weight over enabled factors; disabled factors are skipped entirely
func Composite(parts []FactorScore) float64 {
	total := 0.0
	for _, p := range parts {
		if !p.Enabled {
			continue
		}
		total += p.Score * p.Weight
	}
	return total
}

// factorValue extracts the raw factor value; a nil optional field is missing (NaN)
func factorValue(b *contracts.Bond, key FactorKey) float64 {
	switch key {
	case FactorYTM:
		return contracts.Deref(b.YieldToMaturityPct, math.NaN())
	case FactorPremiumRate:
		return b.PremiumRatePct
	case FactorIssuedAmount:
		return contracts.Deref(b.CurrentIssuedAmount, math.NaN())
	case FactorPureBondPremium:
		return contracts.Deref(b.PureBondPremiumRate, math.NaN())
	}
	return math.NaN()
}

func setFactorScore(b *contracts.Bond, key FactorKey, score float64) {
	switch key {
	case FactorYTM:
		b.ScoreYTM = contracts.Float(score)
	case FactorPremiumRate:
		b.ScorePremiumRate = contracts.Float(score)
	case FactorIssuedAmount:
		b.ScoreIssuedAmount = contracts.Float(score)
	case FactorPureBondPremium:
		b.ScorePureBondPremium = contracts.Float(score)
	}
}

// Apply attaches every factor score and the composite total to bonds in place.
// Percentiles are computed over the full slice; a disabled factor scores 0
// for every bond and does not enter the total. Order is not changed.
// ⭐ SSOT: 종합 점수 계산은 여기서만
func Apply(bonds []contracts.Bond, cfg Config) {
	series := make(map[FactorKey][]float64, len(FactorKeys))
	for _, key := range FactorKeys {
		f := cfg.Factor(key)
		if !f.Enabled {
			series[key] = make([]float64, len(bonds))
			continue
		}
		values := make([]float64, len(bonds))
		for i := range bonds {
			values[i] = factorValue(&bonds[i], key)
		}
		series[key] = ScoreSeries(values, f.LargerBetter)
	}

	parts := make([]FactorScore, len(FactorKeys))
	for i := range bonds {
		for k, key := range FactorKeys {
			f := cfg.Factor(key)
			score := series[key][i]
			setFactorScore(&bonds[i], key, score)
			parts[k] = FactorScore{Score: score, Weight: f.Weight, Enabled: f.Enabled}
		}
		bonds[i].TotalScore = contracts.Float(Composite(parts))
	}
}

// SortByDoubleLow orders by doubleLow ascending; equal values keep input order
func SortByDoubleLow(bonds []contracts.Bond) {
	sort.SliceStable(bonds, func(i, j int) bool {
		return bonds[i].DoubleLow < bonds[j].DoubleLow
	})
}

// SortByTotalScore orders by totalScore descending; unscored bonds go last
func SortByTotalScore(bonds []contracts.Bond) {
	sort.SliceStable(bonds, func(i, j int) bool {
		return contracts.Deref(bonds[i].TotalScore, math.Inf(-1)) > contracts.Deref(bonds[j].TotalScore, math.Inf(-1))
	})
}

// Sort applies order
func Sort(bonds []contracts.Bond, order SortOrder) {
	if order == SortTotalScore {
		SortByTotalScore(bonds)
		return
	}
	SortByDoubleLow(bonds)
}
