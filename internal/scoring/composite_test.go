package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

func TestComposite_DisabledFactorExcluded(t *testing.T) {
	total := Composite([]FactorScore{
		{Score: 0.5, Weight: 2, Enabled: true},
		{Score: 0.25, Weight: 1, Enabled: false},
	})
	assert.Equal(t, 1.0, total)
}

func bond(id string, ytm, premium, amt, pure, doubleLow float64) contracts.Bond {
	return contracts.Bond{
		ID:                  id,
		PremiumRatePct:      premium,
		YieldToMaturityPct:  contracts.Float(ytm),
		CurrentIssuedAmount: contracts.Float(amt),
		PureBondPremiumRate: contracts.Float(pure),
		DoubleLow:           doubleLow,
	}
}

func TestApply_DefaultConfig(t *testing.T) {
	bonds := []contracts.Bond{
		bond("a", 2, 10, 5, 1, 120),
		bond("b", 1, 20, 3, 2, 110),
	}

	Apply(bonds, DefaultConfig())

	// a: ytm 1 (higher), prem 0.5 (lower), amt 0 (larger), pure 0.5 (lower)
	assert.Equal(t, 1.0, *bonds[0].ScoreYTM)
	assert.Equal(t, 0.5, *bonds[0].ScorePremiumRate)
	assert.Equal(t, 0.0, *bonds[0].ScoreIssuedAmount)
	assert.Equal(t, 0.5, *bonds[0].ScorePureBondPremium)
	assert.InDelta(t, 2.0, *bonds[0].TotalScore, 1e-12)

	assert.InDelta(t, 0.5+0+0.5+0, *bonds[1].TotalScore, 1e-12)

	// order untouched
	assert.Equal(t, "a", bonds[0].ID)
}

func TestApply_DisabledFactorAndWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Factors.YTM.Enabled = false
	cfg.Factors.PremiumRate.Weight = 3
	cfg.Factors.IssuedAmount.Enabled = false
	cfg.Factors.PureBondPremium.Enabled = false

	bonds := []contracts.Bond{
		bond("a", 9, 10, 1, 1, 0),
		bond("b", 1, 20, 1, 1, 0),
	}

	Apply(bonds, cfg)

	assert.Equal(t, 0.0, *bonds[0].ScoreYTM)
	assert.Equal(t, 0.0, *bonds[1].ScoreYTM)
	assert.InDelta(t, 1.5, *bonds[0].TotalScore, 1e-12)
	assert.InDelta(t, 0.0, *bonds[1].TotalScore, 1e-12)
}

func TestApply_MissingValuesScoreZero(t *testing.T) {
	cfg := DefaultConfig()
	bonds := []contracts.Bond{
		{ID: "screen-only", PremiumRatePct: 5},
		bond("b", 3, 5, 2, 1, 0),
	}

	Apply(bonds, cfg)

	assert.Equal(t, 0.0, *bonds[0].ScoreYTM)
	assert.Equal(t, 0.0, *bonds[0].ScoreIssuedAmount)
	assert.Equal(t, 1.0, *bonds[1].ScoreYTM)
}

func TestApply_Empty(t *testing.T) {
	assert.NotPanics(t, func() { Apply(nil, DefaultConfig()) })
}

func TestSortByDoubleLow_Stable(t *testing.T) {
	bonds := []contracts.Bond{
		{ID: "x", DoubleLow: 130},
		{ID: "first-tie", DoubleLow: 120},
		{ID: "low", DoubleLow: 100},
		{ID: "second-tie", DoubleLow: 120},
	}

	SortByDoubleLow(bonds)

	got := make([]string, 0, len(bonds))
	for _, b := range bonds {
		got = append(got, b.ID)
	}
	assert.Equal(t, []string{"low", "first-tie", "second-tie", "x"}, got)
}

func TestSortByTotalScore(t *testing.T) {
	bonds := []contracts.Bond{
		{ID: "unscored"},
		{ID: "mid", TotalScore: contracts.Float(1.5)},
		{ID: "top", TotalScore: contracts.Float(3)},
		{ID: "mid2", TotalScore: contracts.Float(1.5)},
	}

	Sort(bonds, SortTotalScore)

	got := make([]string, 0, len(bonds))
	for _, b := range bonds {
		got = append(got, b.ID)
	}
	assert.Equal(t, []string{"top", "mid", "mid2", "unscored"}, got)
}

func TestParseSortOrder(t *testing.T) {
	order, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortDoubleLow, order)

	order, err = ParseSortOrder("totalScore")
	require.NoError(t, err)
	assert.Equal(t, SortTotalScore, order)

	_, err = ParseSortOrder("price")
	assert.Error(t, err)
}
