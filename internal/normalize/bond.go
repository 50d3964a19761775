package normalize

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

var hundred = decimal.NewFromInt(100)

// RedeemLookup resolves the enrichment overlay of a bond id
type RedeemLookup interface {
	Lookup(id string) (contracts.Redeem, bool)
}

// Bond maps one raw listing row onto the canonical record.
// redeem may be nil when no enrichment exists for the row.
func Bond(raw contracts.RawRecord, redeem *contracts.Redeem) contracts.Bond {
	item := raw.Cell()
	id := RecordID(raw)

	price := SafeFloat(item["price"])
	premium := SafeFloat(item["premium_rt"])
	bondValue := SafeFloat(item["bond_value"])

	b := contracts.Bond{
		ID:                  id,
		Code:                id,
		Name:                Text(item["bond_nm"]),
		Price:               price,
		PriceChangePct:      SafeFloat(item["increase_rt"]),
		PremiumRatePct:      premium,
		StockID:             Text(item["stock_id"]),
		StockName:           Text(item["stock_nm"]),
		StockPrice:          SafeFloat(item["sprice"]),
		StockChangePct:      SafeFloat(item["sincrease_rt"]),
		ListDate:            Text(item["list_dt"]),
		BondValue:           contracts.Float(bondValue),
		PureBondPremiumRate: contracts.Float(PureBondPremium(price, bondValue)),
		Rating:              Text(item["rating_cd"]),
		ForceRedeemPrice:    contracts.Float(SafeFloat(item["force_redeem_price"])),
		MaturityDate:        Text(item["maturity_dt"]),
		RemainingYears:      SafeFloat(item["year_left"]),
		CurrentIssuedAmount: contracts.Float(SafeFloat(item["curr_iss_amt"])),
		Volume:              volume(item),
		TurnoverRatePct:     contracts.Float(SafeFloat(item["turnover_rt"])),
		YieldToMaturityPct:  contracts.Float(SafeFloat(item["ytm_rt"])),
		DoubleLow:           DoubleLow(price, premium),
	}

	if redeem != nil {
		b.RedeemStatus = redeem.Status
		b.RedeemIcon = redeem.Icon
	}
	return b
}

// Bonds normalizes rows in order, decorating each with its redeem overlay
func Bonds(raws []contracts.RawRecord, index RedeemLookup) []contracts.Bond {
	out := make([]contracts.Bond, 0, len(raws))
	for _, raw := range raws {
		var redeem *contracts.Redeem
		if index != nil {
			if r, ok := index.Lookup(RecordID(raw)); ok {
				redeem = &r
			}
		}
		out = append(out, Bond(raw, redeem))
	}
	return out
}

// DoubleLow returns price + premium rate (percent points), summed in decimal
func DoubleLow(price, premiumRatePct float64) float64 {
	return decimal.NewFromFloat(price).Add(decimal.NewFromFloat(premiumRatePct)).InexactFloat64()
}

// PureBondPremium returns (price − bondValue) / bondValue × 100, or 0 when bondValue <= 0
func PureBondPremium(price, bondValue float64) float64 {
	if bondValue <= 0 {
		return 0
	}
	bv := decimal.NewFromFloat(bondValue)
	return decimal.NewFromFloat(price).Sub(bv).Div(bv).Mul(hundred).InexactFloat64()
}

// volume prefers "volume" and falls back to "vol_in_2" when it is missing or ""
func volume(item contracts.RawRecord) float64 {
	if v, ok := item["volume"]; ok && v != nil && v != "" {
		return SafeFloat(v)
	}
	return SafeFloat(item["vol_in_2"])
}
