package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/snapfactlabs/snapfact/internal/analysis"
)

// HandleAnalyzeImage relays one image reference to the vision provider and
// returns {"fact": ...} or a normalized {"error": ...}.
func (h *Handler) HandleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "No image URL provided", http.StatusBadRequest)
		return
	}

	fact, err := h.analyzer.Analyze(r.Context(), request.ImageURL)
	switch {
	case errors.Is(err, analysis.ErrNoImageURL):
		h.writeError(w, "No image URL provided", http.StatusBadRequest)
	case errors.Is(err, analysis.ErrContentRejected):
		h.writeError(w, "Image rejected by safety check", http.StatusBadRequest)
	case err != nil:
		// Upstream details go to the log, never to the caller.
		slog.Error("Image analysis failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to analyze image"})
	default:
		h.writeJSON(w, http.StatusOK, map[string]string{"fact": fact})
	}
}
