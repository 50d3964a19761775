package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/bondmaster/backend/internal/api/handlers"
	"github.com/wonny/bondmaster/backend/internal/metrics"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Deps holds everything the router wires. Nil handlers leave their routes unregistered.
type Deps struct {
	Bonds     *handlers.BondsHandler
	Scoring   *handlers.ScoringHandler
	Screen    *handlers.ScreenHandler
	Snapshots *handlers.SnapshotHandler

	Metrics *metrics.Metrics
	Checks  map[string]HealthCheck
	Logger  *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(d.Checks)).Methods("GET")
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	}

	// API routes live on the root router: a /api subrouter answers 404 instead of 405
	// for a method mismatch (mux clears the error on the next route's shared prefix).
	if d.Bonds != nil {
		r.HandleFunc("/api/jisilu/bonds", d.Bonds.Aggregate).Methods("POST")
		r.HandleFunc("/api/jisilu/bonds/export", d.Bonds.Export).Methods("POST")
	}

	// Score config
	if d.Scoring != nil {
		r.HandleFunc("/api/scoring/config", d.Scoring.GetConfig).Methods("GET")
		r.HandleFunc("/api/scoring/config", d.Scoring.SaveConfig).Methods("POST")
		r.HandleFunc("/api/scoring/config", d.Scoring.DeleteConfig).Methods("DELETE")
		r.HandleFunc("/api/scoring/profiles/{name}", d.Scoring.GetProfile).Methods("GET")
		r.HandleFunc("/api/scoring/profiles/{name}", d.Scoring.PutProfile).Methods("PUT")
		r.HandleFunc("/api/scoring/profiles/{name}", d.Scoring.DeleteProfile).Methods("DELETE")
	}

	if d.Screen != nil {
		r.HandleFunc("/api/bonds/screen", d.Screen.Screen).Methods("POST")
	}

	// History
	if d.Snapshots != nil {
		r.HandleFunc("/api/snapshots", d.Snapshots.List).Methods("GET")
		r.HandleFunc("/api/snapshots/latest", d.Snapshots.Latest).Methods("GET")
		r.HandleFunc("/api/snapshots/{id:[0-9]+}", d.Snapshots.Get).Methods("GET")
	}

	// Apply middleware (outermost first)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(d.Logger, d.Metrics))
	r.Use(recoveryMiddleware(d.Logger))

	return r
}

// healthCheckHandler returns server health status; any failing check yields 503
func healthCheckHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]interface{}{
			"status":  overall,
			"service": "bondmaster-api",
			"checks":  results,
		})
	}
}
