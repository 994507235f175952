package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/snapfactlabs/snapfact/internal/models"
)

// DiscoveryStore is the narrow persistence surface the handlers need.
type DiscoveryStore interface {
	InsertDiscovery(ctx context.Context, imageURL, fact string) (models.Discovery, error)
	ListRecent(ctx context.Context, n int) ([]models.Discovery, error)
}

// Analyzer turns an image reference into a fact.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (string, error)
}

type Handler struct {
	store    DiscoveryStore
	analyzer Analyzer
}

func New(store DiscoveryStore, analyzer Analyzer) *Handler {
	return &Handler{
		store:    store,
		analyzer: analyzer,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	h.writeJSON(w, code, map[string]string{"error": message})
}

// WithCORS attaches permissive cross-origin headers to every response and
// answers preflight requests before any business logic runs.
func (h *Handler) WithCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
