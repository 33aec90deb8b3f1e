package server

import (
	"encoding/json"
	"net/http"
	"time"

	"AutoQFM/logger"
	"AutoQFM/model"
)

type playEventRequest struct {
	Track model.Track `json:"track"`
	Index int         `json:"index"`
}

// SessionPlayHandler records a completed play in the live session and,
// when the history store is available, in the long-term play log.
func (h *APIHandler) SessionPlayHandler(w http.ResponseWriter, r *http.Request) {
	var req playEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.session.RecordPlay(req.Track)
	h.recordHistory(r, req.Track, false, 1.0)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recorded":      true,
		"sessionLength": h.session.Len(),
	})
}

// SessionSkipHandler records a skip at the given queue position.
func (h *APIHandler) SessionSkipHandler(w http.ResponseWriter, r *http.Request) {
	var req playEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.session.RecordSkip(req.Track, req.Index)
	h.recordHistory(r, req.Track, true, 0)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recorded":      true,
		"sessionLength": h.session.Len(),
	})
}

// SessionResetHandler clears the live session. The long-term play log is
// untouched; reset means "new listening session", not "forget me".
func (h *APIHandler) SessionResetHandler(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	respondJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// SessionAnalysisHandler returns the derived view of the live session.
func (h *APIHandler) SessionAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	analysis := h.session.Analyze()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionLength": h.session.Len(),
		"analysis":      analysis,
	})
}

func (h *APIHandler) recordHistory(r *http.Request, track model.Track, skipped bool, ratio float64) {
	if h.history == nil {
		return
	}

	trackID := track.ID
	if trackID == "" {
		trackID = track.VideoID
	}
	err := h.history.Record(r.Context(), &model.PlayHistory{
		TrackID:         trackID,
		Title:           track.Title,
		Artist:          track.Artist,
		WasSkipped:      skipped,
		CompletionRatio: ratio,
		PlayedAt:        time.Now(),
	})
	if err != nil {
		logger.Warn("failed to record play history",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
	}
}
