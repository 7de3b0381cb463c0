package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/vertexntuples/internal/adapters/repository"
)

// HistogramsDependencies defines the interface for histogram reads.
type HistogramsDependencies interface {
	Histograms(ctx context.Context) ([]repository.Histogram, error)
}

// HistogramsHandler handles histogram requests.
type HistogramsHandler struct {
	deps HistogramsDependencies
}

// NewHistogramsHandler creates a new histograms handler.
func NewHistogramsHandler(deps HistogramsDependencies) *HistogramsHandler {
	return &HistogramsHandler{deps: deps}
}

// HandleGetHistograms handles GET /histograms[?name=N] requests. Without a
// name every histogram is returned as a list.
func (h *HistogramsHandler) HandleGetHistograms(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_histograms"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	hs, err := h.deps.Histograms(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusOK, hs)
		return
	}
	for _, hist := range hs {
		if hist.Name == name {
			writeJSON(w, http.StatusOK, hist)
			return
		}
	}
	fail(w, WrapKind(op, ErrNotFound, fmt.Errorf("histogram %q", name)))
}
