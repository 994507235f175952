package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// HandleDiscoveries serves the recency window (GET) and persists a new
// discovery (POST).
func (h *Handler) HandleDiscoveries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListDiscoveries(w, r)
	case http.MethodPost:
		h.handleCreateDiscovery(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleListDiscoveries(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, "Invalid limit: "+raw, http.StatusBadRequest)
			return
		}
		limit = min(n, maxRecentLimit)
	}

	discoveries, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list discoveries", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load discoveries"})
		return
	}

	h.writeJSON(w, http.StatusOK, discoveries)
}

func (h *Handler) handleCreateDiscovery(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL string `json:"image_url"`
		Fact     string `json:"fact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}
	if request.Fact == "" {
		h.writeError(w, "fact is required", http.StatusBadRequest)
		return
	}

	discovery, err := h.store.InsertDiscovery(r.Context(), request.ImageURL, request.Fact)
	if err != nil {
		slog.Error("Failed to insert discovery", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save discovery"})
		return
	}

	h.writeJSON(w, http.StatusOK, discovery)
}
