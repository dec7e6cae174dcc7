package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"airportmath/internal/store"
)

type HealthHandler struct {
	store *store.AirportStore
}

func NewHealthHandler(s *store.AirportStore) *HealthHandler {
	return &HealthHandler{store: s}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready        bool      `json:"ready"`
	AirportCount int       `json:"airportCount"`
	ServerTime   time.Time `json:"serverTime"`
}

// Readyz reports ready once an airport dataset has been installed
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	ready := stats.Count > 0
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:        ready,
		AirportCount: stats.Count,
		ServerTime:   time.Now(),
	})
}
