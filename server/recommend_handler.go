package server

import (
	"encoding/json"
	"net/http"

	"AutoQFM/logger"
	"AutoQFM/model"
)

// RecommendHandler runs the recommendation flow for the current track and
// queue, pushes the batch to websocket subscribers and returns it.
func (h *APIHandler) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	var req model.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentTrack.ID == "" && req.CurrentTrack.VideoID == "" && req.CurrentTrack.Title == "" {
		respondError(w, http.StatusBadRequest, "currentTrack is required")
		return
	}

	resp := h.orchestrator.Recommend(r.Context(), req)

	if h.hub != nil && len(resp.Tracks) > 0 {
		h.hub.BroadcastQueue(resp)
	}

	logger.Info("recommendation request served",
		logger.String("seedId", req.CurrentTrack.ID),
		logger.String("source", resp.Source),
		logger.Int("tracks", len(resp.Tracks)))
	respondJSON(w, http.StatusOK, resp)
}
