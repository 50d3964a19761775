package contracts

// Bond is one convertible bond after normalization
// ⭐ SSOT: 파이프라인 출력(정규화된 전환사채) 타입은 여기서만
//
// JSON names follow the listing consumer's wire format. Optional values are
// pointers: the screen service may omit them, the local pipeline always sets them.
type Bond struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`

	Price               float64  `json:"price"`
	PriceChangePct      float64  `json:"priceChange"`
	PremiumRatePct      float64  `json:"premiumRate"`
	StockID             string   `json:"stockId,omitempty"`
	StockName           string   `json:"stockName,omitempty"`
	StockPrice          float64  `json:"stockPrice"`
	StockChangePct      float64  `json:"stockChange"`
	ListDate            string   `json:"listDate,omitempty"`
	BondValue           *float64 `json:"bondValue,omitempty"`
	PureBondPremiumRate *float64 `json:"pureBondPremiumRate,omitempty"`

	RedeemStatus  string      `json:"redeemStatus,omitempty"`
	RedeemIcon    string      `json:"redeemIcon,omitempty"`
	SatisfyRedeem interface{} `json:"satisfyRedeem,omitempty"` // screen only: string or number

	Rating              string   `json:"rating"`
	ForceRedeemPrice    *float64 `json:"forceRedeemPrice,omitempty"`
	MaturityDate        string   `json:"maturityDate,omitempty"`
	RemainingYears      float64  `json:"remainingYear"`
	CurrentIssuedAmount *float64 `json:"currIssAmt,omitempty"`
	Volume              float64  `json:"volume"` // 만원
	TurnoverRatePct     *float64 `json:"turnoverRate,omitempty"`
	YieldToMaturityPct  *float64 `json:"ytmRt,omitempty"`

	// Per-factor percentile scores and the weighted composite
	ScoreYTM             *float64 `json:"sYtm,omitempty"`
	ScorePremiumRate     *float64 `json:"sPrem,omitempty"`
	ScoreIssuedAmount    *float64 `json:"sAmt,omitempty"`
	ScorePureBondPremium *float64 `json:"sPureOr,omitempty"`
	TotalScore           *float64 `json:"totalScore,omitempty"`

	// DoubleLow = Price + PremiumRatePct
	DoubleLow float64 `json:"doubleLow"`
}

// Redeem is the enrichment overlay for one bond id
type Redeem struct {
	Status string `json:"status"`
	Icon   string `json:"icon"`
}

// Float returns a pointer to v (optional numeric fields)
func Float(v float64) *float64 {
	return &v
}

// Deref returns *p or fallback when p is nil
func Deref(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
