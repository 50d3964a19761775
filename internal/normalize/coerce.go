// Package normalize maps raw listing rows onto contracts.Bond.
// Nothing in this package returns an error: malformed values degrade to defaults.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

// SafeFloat coerces an upstream value to a finite float64.
//
//	numeric          → itself (NaN / ±Inf → 0)
//	"12.5" / "12.5%" → 12.5
//	anything else    → 0
//
// ⭐ SSOT: 숫자 변환은 이 함수로만 (NaN 은 절대 하류로 흘려보내지 않음)
func SafeFloat(v interface{}) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Text renders a scalar as a string; nil and objects become ""
func Text(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// Flatten unwraps the optional "cell" object of a raw row
func Flatten(raw contracts.RawRecord) contracts.RawRecord {
	return raw.Cell()
}

// RecordID returns the row's bond id: bond_id, then id. "" when neither is set.
func RecordID(raw contracts.RawRecord) string {
	item := raw.Cell()
	if id := Text(item["bond_id"]); id != "" {
		return id
	}
	return Text(item["id"])
}

// FirstText returns the first key whose value is non-nil, rendered with Text.
// An explicit "" still counts as present.
func FirstText(item contracts.RawRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return Text(v)
		}
	}
	return ""
}
