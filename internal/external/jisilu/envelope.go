package jisilu

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/normalize"
)

// loginMarker appears on every page the source serves to a signed-out visitor
const loginMarker = "登录"

// matcher extracts the row list from one envelope shape
type matcher func(doc interface{}) ([]interface{}, bool)

// Envelope shapes, tried in order; the first match wins.
var (
	listingMatchers = []matcher{rowsField, dataArray, bareArray}
	redeemMatchers  = []matcher{bareArray, rowsField, dataRows, dataArray}
)

// {"rows": [...]}
func rowsField(doc interface{}) ([]interface{}, bool) {
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, false
	}
	rows, ok := obj["rows"].([]interface{})
	return rows, ok
}

// {"data": {"rows": [...]}}
func dataRows(doc interface{}) ([]interface{}, bool) {
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return rowsField(obj["data"])
}

// {"data": [...]}
func dataArray(doc interface{}) ([]interface{}, bool) {
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, false
	}
	rows, ok := obj["data"].([]interface{})
	return rows, ok
}

// [...]
func bareArray(doc interface{}) ([]interface{}, bool) {
	rows, ok := doc.([]interface{})
	return rows, ok
}

func match(doc interface{}, matchers []matcher) ([]interface{}, bool) {
	for _, m := range matchers {
		if rows, ok := m(doc); ok {
			return rows, true
		}
	}
	return nil, false
}

func decodeJSON(body []byte) (interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	return doc, true
}

// decodeListing decodes a listing page body; ok=false when no envelope matches
func decodeListing(body []byte) (*contracts.ListingPage, bool) {
	doc, ok := decodeJSON(body)
	if !ok {
		return nil, false
	}
	rows, ok := match(doc, listingMatchers)
	if !ok {
		return nil, false
	}

	page := &contracts.ListingPage{Rows: toRecords(rows)}
	if obj, isObj := doc.(map[string]interface{}); isObj {
		if n, isNum := obj["total"].(json.Number); isNum {
			if total, err := n.Int64(); err == nil {
				t := int(total)
				page.Total = &t
			} else if f, err := n.Float64(); err == nil {
				t := int(f)
				page.Total = &t
			}
		}
	}
	return page, true
}

func decodeRedeemRows(body []byte) ([]contracts.RawRecord, bool) {
	doc, ok := decodeJSON(body)
	if !ok {
		return nil, false
	}
	rows, ok := match(doc, redeemMatchers)
	if !ok {
		return nil, false
	}
	return toRecords(rows), true
}

// toRecords keeps object rows; scalars and nulls carry no fields and are dropped
func toRecords(rows []interface{}) []contracts.RawRecord {
	out := make([]contracts.RawRecord, 0, len(rows))
	for _, r := range rows {
		if obj, ok := r.(map[string]interface{}); ok {
			out = append(out, contracts.RawRecord(obj))
		}
	}
	return out
}

// redeemIndex keeps rows with an id and at least one of status / icon
func redeemIndex(rows []contracts.RawRecord) map[string]contracts.Redeem {
	index := make(map[string]contracts.Redeem, len(rows))
	for _, row := range rows {
		id := normalize.RecordID(row)
		if id == "" {
			continue
		}
		item := row.Cell()
		r := contracts.Redeem{
			Status: normalize.FirstText(item, "redeem_status", "redeemStatus"),
			Icon:   normalize.FirstText(item, "redeem_icon", "redeemIcon"),
		}
		if r.Status != "" || r.Icon != "" {
			index[id] = r
		}
	}
	return index
}

// isLoginPage reports whether body is the sign-in page served to expired sessions
func isLoginPage(body []byte) bool {
	if bytes.Contains(body, []byte(loginMarker)) {
		return true
	}
	if !bytes.Contains(body, []byte("<")) {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	if doc.Find(`input[type="password"]`).Length() > 0 {
		return true
	}
	found := false
	doc.Find("form").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		action, _ := s.Attr("action")
		if strings.Contains(strings.ToLower(action), "login") {
			found = true
			return false
		}
		return true
	})
	return found
}
