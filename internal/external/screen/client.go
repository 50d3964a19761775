// Package screen calls the external screening service, which filters and
// scores bonds on its own; results are mapped onto contracts.Bond.
package screen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/normalize"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/httputil"
	"github.com/wonny/bondmaster/backend/pkg/logger"
	"github.com/wonny/bondmaster/backend/pkg/redis"
)

const defaultFailureMessage = "screen service call failed"

// FactorWeights overrides the service's factor weights
type FactorWeights struct {
	YTM           *float64 `json:"ytm_rt,omitempty"`
	PremiumRate   *float64 `json:"premium_rt,omitempty"`
	BondYTM       *float64 `json:"bond_ytm,omitempty"`
	IssuedAmount  *float64 `json:"curr_iss_amt,omitempty"`
	StockMomentum *float64 `json:"stock_mom,omitempty"`
}

// Request is the screening filter set; zero fields are omitted
type Request struct {
	MaxPrice        *float64       `json:"max_price,omitempty"`
	MaxPremiumRate  *float64       `json:"max_premium_rt,omitempty"`
	MinTurnoverRate *float64       `json:"min_turnover_rt,omitempty"`
	YearLeft        *float64       `json:"year_left,omitempty"`
	RatingPattern   string         `json:"rating_pattern,omitempty"`
	TopN            int            `json:"top_n,omitempty"`
	ExcludeBondIDs  []string       `json:"exclude_bond_ids,omitempty"`
	FactorWeights   *FactorWeights `json:"factor_weights,omitempty"`
	HoldIDs         []string       `json:"hold_ids,omitempty"`
}

// Summary describes the service's run
type Summary struct {
	TotalBonds    int                    `json:"total_bonds"`
	SelectedCount int                    `json:"selected_count"`
	ConfigUsed    map[string]interface{} `json:"config_used"`
}

// Trade is a buy/sell suggestion relative to HoldIDs
type Trade struct {
	BondID     string  `json:"bond_id"`
	BondName   string  `json:"bond_nm"`
	Price      float64 `json:"price"`
	IncreaseRt float64 `json:"increase_rt"`
	Action     string  `json:"action"`
}

// Result is the mapped screening response
type Result struct {
	Summary Summary          `json:"summary"`
	Bonds   []contracts.Bond `json:"bonds"`
	Sell    []Trade          `json:"sell"`
	Buy     []Trade          `json:"buy"`
}

type response struct {
	Summary Summary               `json:"summary"`
	Result  []contracts.RawRecord `json:"result"`
	Sell    []Trade               `json:"sell"`
	Buy     []Trade               `json:"buy"`
}

// Client handles communication with the screening service
// ⭐ SSOT: 선별(screen) 서비스 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new screening client
func NewClient(httpClient *httputil.Client, cfg config.ScreenConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("screen"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// NewHTTPClient builds the outbound client: default retries, optional shared Redis limiter
func NewHTTPClient(cfg config.ScreenConfig, log *logger.Logger, limiter *redis.RateLimiter) *httputil.Client {
	client := httputil.NewWithTimeout(log, cfg.Timeout).Named("screen")
	if limiter != nil {
		client.WithRateLimiter(limiter, redis.ScreenRateLimit)
	}
	return client
}

// Screen posts req and maps the result rows.
// A non-2xx answer becomes an UpstreamTransport error carrying the body's message.
func (c *Client) Screen(ctx context.Context, req Request) (*Result, error) {
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/bonds/screen", req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contracts.NewCanceledError(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, contracts.NewCanceledError(err)
		}
		return nil, contracts.NewTransportError(0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.NewTransportError(0, "", fmt.Errorf("read response body failed: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := contracts.NewTransportError(resp.StatusCode, http.StatusText(resp.StatusCode), nil)
		e.Message = failureMessage(body)
		return nil, e
	}

	var data response
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, contracts.NewShapeError(fmt.Sprintf("screen response: %v", err))
	}

	bonds := make([]contracts.Bond, 0, len(data.Result))
	for _, row := range data.Result {
		bonds = append(bonds, MapBond(row))
	}

	c.logger.WithFields(map[string]interface{}{
		"total":    data.Summary.TotalBonds,
		"selected": len(bonds),
	}).Info("Screen completed")

	return &Result{Summary: data.Summary, Bonds: bonds, Sell: data.Sell, Buy: data.Buy}, nil
}

// MapBond maps one service row. Only JSON numbers count as numeric here:
// required prices default to 0, optional ones stay nil.
func MapBond(item contracts.RawRecord) contracts.Bond {
	id := normalize.Text(item["bond_id"])
	price, _ := number(item["price"])
	premium, _ := number(item["premium_rt"])
	change, _ := number(item["increase_rt"])
	stockPrice, _ := number(item["stock_last_px"])
	yearLeft, _ := number(item["year_left"])

	b := contracts.Bond{
		ID:                  id,
		Code:                id,
		Name:                normalize.Text(item["bond_nm"]),
		Price:               price,
		PriceChangePct:      change,
		PremiumRatePct:      premium,
		StockPrice:          stockPrice,
		BondValue:           optional(item["bond_value"]),
		RedeemStatus:        normalize.Text(item["redeem_status"]),
		RedeemIcon:          normalize.Text(item["redeem_icon"]),
		Rating:              normalize.Text(item["rating_cd"]),
		RemainingYears:      yearLeft,
		CurrentIssuedAmount: optional(item["curr_iss_amt"]),
		TurnoverRatePct:     optional(item["turnover_rt"]),
		YieldToMaturityPct:  optional(item["ytm_rt"]),
		TotalScore:          optional(item["total_score"]),
		DoubleLow:           normalize.DoubleLow(price, premium),
	}

	if b.BondValue != nil && *b.BondValue > 0 {
		b.PureBondPremiumRate = contracts.Float(normalize.PureBondPremium(price, *b.BondValue))
	}

	switch v := item["满足强赎"].(type) {
	case string:
		b.SatisfyRedeem = v
	case json.Number:
		b.SatisfyRedeem = normalize.SafeFloat(v)
	}

	return b
}

func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case json.Number, float64:
		return normalize.SafeFloat(x), true
	}
	return 0, false
}

func optional(v interface{}) *float64 {
	if f, ok := number(v); ok {
		return contracts.Float(f)
	}
	return nil
}

func failureMessage(body []byte) string {
	var payload struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != nil {
		return *payload.Message
	}
	return defaultFailureMessage
}
