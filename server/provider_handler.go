package server

import (
	"net/http"

	"AutoQFM/core/provider"
	"AutoQFM/logger"
)

// ProviderSearchHandler proxies a raw search to the external provider.
// The player uses it for manual searches; the engine goes through the
// resolver instead.
func (h *APIHandler) ProviderSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	results, err := h.provider.Search(r.Context(), query, provider.KindSong, 30)
	if err != nil {
		logger.Warn("provider search failed", logger.String("query", query), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "provider search failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ProviderPlaylistHandler fetches a playlist's tracks from the provider.
func (h *APIHandler) ProviderPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	results, err := h.provider.GetPlaylist(r.Context(), id)
	if err != nil {
		logger.Warn("provider playlist fetch failed", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "provider playlist fetch failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ProviderAlbumHandler fetches an album's tracks from the provider.
func (h *APIHandler) ProviderAlbumHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	results, err := h.provider.GetAlbum(r.Context(), id)
	if err != nil {
		logger.Warn("provider album fetch failed", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "provider album fetch failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
