package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/pkg/logger"
	"github.com/wonny/bondmaster/backend/pkg/redis"
)

// cookieMaxAge is one year in seconds
const cookieMaxAge = 60 * 60 * 24 * 365

// ScoringHandler manages score configs: the per-browser cookie and stored profiles
type ScoringHandler struct {
	store  scoring.Store
	logger *logger.Logger
}

// NewScoringHandler creates a scoring handler. store may be nil (profiles unavailable).
func NewScoringHandler(store scoring.Store, log *logger.Logger) *ScoringHandler {
	return &ScoringHandler{
		store:  store,
		logger: log.Component("scoring_handler"),
	}
}

type configResponse struct {
	Success bool            `json:"success"`
	Config  *scoring.Config `json:"config,omitempty"`
	Profile string          `json:"profile,omitempty"`
}

// GetConfig returns the config held in the cookie, or the defaults
// GET /api/scoring/config
func (h *ScoringHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := scoring.DefaultConfig()
	if c, err := r.Cookie(scoring.CookieName); err == nil {
		if decoded, ok := scoring.DecodeCookieValue(c.Value); ok {
			cfg = decoded
		}
	}
	respondJSON(w, http.StatusOK, configResponse{Success: true, Config: &cfg})
}

// SaveConfig normalizes body.config (or the body itself) and stores it in the cookie
// POST /api/scoring/config
func (h *ScoringHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	cfg := normalizeBody(w, r)

	http.SetCookie(w, &http.Cookie{
		Name:     scoring.CookieName,
		Value:    scoring.EncodeCookieValue(cfg),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, configResponse{Success: true, Config: &cfg})
}

// DeleteConfig expires the cookie
// DELETE /api/scoring/config
func (h *ScoringHandler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     scoring.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, configResponse{Success: true})
}

// GetProfile returns a stored profile, or the defaults when none is stored
// GET /api/scoring/profiles/{name}
func (h *ScoringHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	name := mux.Vars(r)["name"]

	cfg, err := scoring.Resolve(r.Context(), h.store, name)
	if err != nil {
		h.logger.WithError(err).WithField("profile", name).Error("Failed to load profile")
		respondError(w, http.StatusInternalServerError, "failed to load score profile")
		return
	}
	respondJSON(w, http.StatusOK, configResponse{Success: true, Config: &cfg, Profile: name})
}

// PutProfile normalizes the body and stores it under the profile name
// PUT /api/scoring/profiles/{name}
func (h *ScoringHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	name := mux.Vars(r)["name"]
	cfg := normalizeBody(w, r)

	if err := h.store.Put(r.Context(), name, cfg); err != nil {
		h.storeFailure(w, err, name)
		return
	}

	h.logger.WithField("profile", name).Info("Score profile saved")
	respondJSON(w, http.StatusOK, configResponse{Success: true, Config: &cfg, Profile: name})
}

// DeleteProfile removes a stored profile
// DELETE /api/scoring/profiles/{name}
func (h *ScoringHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	name := mux.Vars(r)["name"]

	if err := h.store.Delete(r.Context(), name); err != nil {
		h.storeFailure(w, err, name)
		return
	}
	respondJSON(w, http.StatusOK, configResponse{Success: true, Profile: name})
}

func (h *ScoringHandler) available(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "score profile store is not configured")
		return false
	}
	return true
}

func (h *ScoringHandler) storeFailure(w http.ResponseWriter, err error, name string) {
	if errors.Is(err, redis.ErrDisabled) {
		respondError(w, http.StatusServiceUnavailable, "score profile store is not configured")
		return
	}
	h.logger.WithError(err).WithField("profile", name).Error("Score profile store failed")
	respondError(w, http.StatusInternalServerError, "failed to update score profile")
}

// normalizeBody reads {config: {...}} or a bare config; an unreadable body yields the defaults
func normalizeBody(w http.ResponseWriter, r *http.Request) scoring.Config {
	var body interface{}
	if err := decodeBody(w, r, &body); err != nil {
		body = nil
	}
	if obj, ok := body.(map[string]interface{}); ok {
		if inner, ok := obj["config"]; ok && inner != nil {
			return scoring.Normalize(inner)
		}
	}
	return scoring.Normalize(body)
}
