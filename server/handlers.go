package server

import (
	"encoding/json"
	"net/http"

	"AutoQFM/config"
	"AutoQFM/core/analytics"
	"AutoQFM/core/provider"
	"AutoQFM/core/recommend"
	"AutoQFM/logger"
	"AutoQFM/repository"
)

// APIHandler carries the wired engine components for the HTTP layer.
type APIHandler struct {
	orchestrator *recommend.Orchestrator
	session      *analytics.Analytics
	history      repository.HistoryRepository
	provider     *provider.Client
	hub          *QueueHub
	cfg          *config.Config
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(
	orchestrator *recommend.Orchestrator,
	session *analytics.Analytics,
	history repository.HistoryRepository,
	providerClient *provider.Client,
	hub *QueueHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		orchestrator: orchestrator,
		session:      session,
		history:      history,
		provider:     providerClient,
		hub:          hub,
		cfg:          cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
