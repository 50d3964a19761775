package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/bondmaster/backend/internal/snapshot"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// SnapshotReader reads stored rankings
type SnapshotReader interface {
	List(ctx context.Context, limit int) ([]snapshot.Summary, error)
	Get(ctx context.Context, id int64) (*snapshot.Snapshot, error)
	Latest(ctx context.Context) (*snapshot.Snapshot, error)
}

// SnapshotHandler serves ranking history
type SnapshotHandler struct {
	repo   SnapshotReader
	logger *logger.Logger
}

// NewSnapshotHandler creates a snapshot handler
func NewSnapshotHandler(repo SnapshotReader, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		repo:   repo,
		logger: log.Component("snapshot_handler"),
	}
}

// List returns recent snapshot summaries
// GET /api/snapshots?limit=20
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	summaries, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(summaries),
		"snapshots": summaries,
	})
}

// Get returns one snapshot with its bonds
// GET /api/snapshots/{id}
func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}

	snap, err := h.repo.Get(r.Context(), id)
	h.respondSnapshot(w, snap, err)
}

// Latest returns the newest snapshot
// GET /api/snapshots/latest
func (h *SnapshotHandler) Latest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.repo.Latest(r.Context())
	h.respondSnapshot(w, snap, err)
}

func (h *SnapshotHandler) respondSnapshot(w http.ResponseWriter, snap *snapshot.Snapshot, err error) {
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshot")
		respondError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"snapshot": snap,
	})
}
