package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// CookieName is the cookie holding the caller's ScoreConfig
const CookieName = "bm_score_config"

// ConfigVersion is the only config schema version
const ConfigVersion = 1

// FactorKey names one scoring factor. The set is closed.
type FactorKey string

const (
	FactorYTM             FactorKey = "ytmRt"
	FactorPremiumRate     FactorKey = "premiumRate"
	FactorIssuedAmount    FactorKey = "currIssAmt"
	FactorPureBondPremium FactorKey = "pureBondPremiumRate"
)

// FactorKeys lists every factor in scoring order
var FactorKeys = []FactorKey{FactorYTM, FactorPremiumRate, FactorIssuedAmount, FactorPureBondPremium}

// FactorConfig controls one factor
type FactorConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	Weight       float64 `json:"weight" yaml:"weight"`
	LargerBetter bool    `json:"largerBetter" yaml:"largerBetter"`
}

// Factors holds one FactorConfig per factor key
type Factors struct {
	YTM             FactorConfig `json:"ytmRt" yaml:"ytmRt"`
	PremiumRate     FactorConfig `json:"premiumRate" yaml:"premiumRate"`
	IssuedAmount    FactorConfig `json:"currIssAmt" yaml:"currIssAmt"`
	PureBondPremium FactorConfig `json:"pureBondPremiumRate" yaml:"pureBondPremiumRate"`
}

// Config is the composite scoring configuration
// ⭐ SSOT: 점수 설정 스키마는 여기서만
type Config struct {
	Version int     `json:"version" yaml:"version"`
	Factors Factors `json:"factors" yaml:"factors"`
}

// DefaultConfig returns the built-in weights: higher YTM is better,
// lower premium / issued amount / pure-bond premium is better, all weight 1.
func DefaultConfig() Config {
	return Config{
		Version: ConfigVersion,
		Factors: Factors{
			YTM:             FactorConfig{Enabled: true, Weight: 1, LargerBetter: true},
			PremiumRate:     FactorConfig{Enabled: true, Weight: 1, LargerBetter: false},
			IssuedAmount:    FactorConfig{Enabled: true, Weight: 1, LargerBetter: false},
			PureBondPremium: FactorConfig{Enabled: true, Weight: 1, LargerBetter: false},
		},
	}
}

// Factor returns the config of key
func (c Config) Factor(key FactorKey) FactorConfig {
	if f := c.factorPtr(key); f != nil {
		return *f
	}
	return FactorConfig{}
}

func (c *Config) factorPtr(key FactorKey) *FactorConfig {
	switch key {
	case FactorYTM:
		return &c.Factors.YTM
	case FactorPremiumRate:
		return &c.Factors.PremiumRate
	case FactorIssuedAmount:
		return &c.Factors.IssuedAmount
	case FactorPureBondPremium:
		return &c.Factors.PureBondPremium
	}
	return nil
}

// Normalize builds a Config from loosely typed decoded JSON.
// Unknown keys are ignored; each missing or malformed field keeps its default.
//
//	enabled, largerBetter  must be JSON booleans
//	weight                 finite number or numeric string
func Normalize(input interface{}) Config {
	out := DefaultConfig()

	obj, ok := input.(map[string]interface{})
	if !ok {
		return out
	}
	factors, ok := obj["factors"].(map[string]interface{})
	if !ok {
		return out
	}

	for _, key := range FactorKeys {
		f, ok := factors[string(key)].(map[string]interface{})
		if !ok {
			continue
		}
		dst := out.factorPtr(key)

		if v, ok := f["enabled"].(bool); ok {
			dst.Enabled = v
		}
		if w, ok := toWeight(f["weight"]); ok {
			dst.Weight = w
		}
		if v, ok := f["largerBetter"].(bool); ok {
			dst.LargerBetter = v
		}
	}

	return out
}

// NormalizeJSON is Normalize over raw JSON; invalid JSON yields the defaults
func NormalizeJSON(data []byte) Config {
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return DefaultConfig()
	}
	return Normalize(input)
}

func toWeight(v interface{}) (float64, bool) {
	var w float64
	switch x := v.(type) {
	case float64:
		w = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		w = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		w = f
	default:
		return 0, false
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, false
	}
	return w, true
}

// EncodeCookieValue serializes cfg as URL-escaped JSON
func EncodeCookieValue(cfg Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		// Config holds only finite numbers and bools
		return ""
	}
	return url.QueryEscape(string(data))
}

// DecodeCookieValue parses a cookie value written by EncodeCookieValue.
// ok=false on an empty, non-escaped or non-JSON value; the caller falls back to defaults.
func DecodeCookieValue(val string) (Config, bool) {
	if val == "" {
		return Config{}, false
	}
	decoded, err := url.QueryUnescape(val)
	if err != nil {
		return Config{}, false
	}
	var input interface{}
	if err := json.Unmarshal([]byte(decoded), &input); err != nil {
		return Config{}, false
	}
	return Normalize(input), true
}

// Hash returns the SHA-256 of the canonical JSON form of cfg
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal score config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
