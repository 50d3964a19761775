package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// errorResponse is the failure envelope of every endpoint
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Success: false, Message: message})
}

// respondFailure maps a domain error to its status; anything else is a 500 with fallback as message
func respondFailure(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	var derr *contracts.Error
	if errors.As(err, &derr) {
		status := derr.HTTPStatus()
		entry := log.WithError(err).WithFields(map[string]interface{}{
			"kind":   string(derr.Kind),
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Warn("Request rejected")
		}
		respondJSON(w, status, errorResponse{Success: false, Message: derr.Message, Kind: string(derr.Kind)})
		return
	}

	log.WithError(err).Error("Request failed")
	respondError(w, http.StatusInternalServerError, fallback)
}

// decodeBody decodes a JSON body into dest. An empty body leaves dest untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
