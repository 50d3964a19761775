package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/external/screen"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// Screener calls the screening service
type Screener interface {
	Screen(ctx context.Context, req screen.Request) (*screen.Result, error)
}

// ScreenHandler proxies screening requests
type ScreenHandler struct {
	screener Screener
	logger   *logger.Logger
}

// NewScreenHandler creates a screen handler
func NewScreenHandler(screener Screener, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		screener: screener,
		logger:   log.Component("screen_handler"),
	}
}

type screenResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Summary screen.Summary   `json:"summary"`
	Bonds   []contracts.Bond `json:"bonds"`
	Sell    []screen.Trade   `json:"sell"`
	Buy     []screen.Trade   `json:"buy"`
}

// Screen forwards the filter set and returns mapped bonds
// POST /api/bonds/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req screen.Request
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.screener.Screen(r.Context(), req)
	if err != nil {
		respondFailure(w, h.logger.WithContext(r.Context()), err, "screen service call failed")
		return
	}

	respondJSON(w, http.StatusOK, screenResponse{
		Success: true,
		Count:   len(res.Bonds),
		Summary: res.Summary,
		Bonds:   res.Bonds,
		Sell:    res.Sell,
		Buy:     res.Buy,
	})
}
