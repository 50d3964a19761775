package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/bondmaster/backend/internal/aggregator"
	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/export"
	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/internal/snapshot"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// Aggregator runs one aggregation
type Aggregator interface {
	Run(ctx context.Context, req aggregator.Request) (*aggregator.Result, error)
}

// BondsHandler serves the aggregation trigger
// ⭐ SSOT: 집계 트리거 API는 이 핸들러에서만
type BondsHandler struct {
	agg    Aggregator
	saver  snapshot.Saver
	logger *logger.Logger
}

// NewBondsHandler creates a bonds handler. saver may be nil (no snapshots).
func NewBondsHandler(agg Aggregator, saver snapshot.Saver, log *logger.Logger) *BondsHandler {
	return &BondsHandler{
		agg:    agg,
		saver:  saver,
		logger: log.Component("bonds_handler"),
	}
}

// AggregateRequest is the trigger body
type AggregateRequest struct {
	Cookie      string      `json:"cookie"`
	ScoreConfig interface{} `json:"scoreConfig,omitempty"`
	Sort        string      `json:"sort,omitempty"`
}

// AggregateResponse is the success envelope
type AggregateResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Bonds      []contracts.Bond  `json:"bonds"`
	Sort       scoring.SortOrder `json:"sort"`
	Config     scoring.Config    `json:"config"`
	Degraded   bool              `json:"enrichmentDegraded"`
	SnapshotID int64             `json:"snapshotId,omitempty"`
}

// Aggregate fetches, enriches, scores and sorts the full listing
// POST /api/jisilu/bonds
func (h *BondsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	resp := AggregateResponse{
		Success:  true,
		Count:    len(res.Bonds),
		Bonds:    res.Bonds,
		Sort:     res.Sort,
		Config:   res.Config,
		Degraded: res.Degraded,
	}
	resp.SnapshotID = h.save(r.Context(), res)

	respondJSON(w, http.StatusOK, resp)
}

// Export runs the same aggregation and returns it as an XLSX workbook
// POST /api/jisilu/bonds/export
func (h *BondsHandler) Export(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, res.Bonds); err != nil {
		h.logger.WithError(err).Error("Failed to build workbook")
		respondError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	filename := fmt.Sprintf("bonds-%s.xlsx", res.FetchedAt.Format("20060102-1504"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// run decodes the body, resolves the score config and aggregates.
// ok=false means a failure response was already written.
func (h *BondsHandler) run(w http.ResponseWriter, r *http.Request) (*aggregator.Result, bool) {
	var body AggregateRequest
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	order, err := scoring.ParseSortOrder(body.Sort)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	cfg := resolveConfig(r, body.ScoreConfig)

	res, err := h.agg.Run(r.Context(), aggregator.Request{
		Cookie: body.Cookie,
		Config: &cfg,
		Sort:   order,
	})
	if err != nil {
		respondFailure(w, h.logger.WithContext(r.Context()), err, "failed to fetch bond data")
		return nil, false
	}

	return res, true
}

// save stores a snapshot when a saver is configured; failures only log
func (h *BondsHandler) save(ctx context.Context, res *aggregator.Result) int64 {
	if h.saver == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	id, err := h.saver.Save(ctx, snapshot.FromResult(res, snapshot.SourceAPI))
	if err != nil {
		h.logger.WithError(err).Warn("Failed to store snapshot")
		return 0
	}
	return id
}

// resolveConfig applies body config → score config cookie → defaults
func resolveConfig(r *http.Request, fromBody interface{}) scoring.Config {
	if truthy(fromBody) {
		return scoring.Normalize(fromBody)
	}
	if c, err := r.Cookie(scoring.CookieName); err == nil {
		if cfg, ok := scoring.DecodeCookieValue(c.Value); ok {
			return cfg
		}
	}
	return scoring.DefaultConfig()
}

// truthy reports whether a decoded JSON value counts as present
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}
