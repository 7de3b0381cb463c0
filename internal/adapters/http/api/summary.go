package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/vertexntuples/internal/adapters/repository"
	"github.com/okian/vertexntuples/internal/domain/analyzer"
	"github.com/okian/vertexntuples/internal/domain/model"
)

// SummaryDependencies defines the interface for per-event lookups.
type SummaryDependencies interface {
	Summary(ctx context.Context, key model.EventKey) (analyzer.Summary, error)
}

// SummaryHandler handles per-event summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleGetSummary handles GET /events/{run:lumi:event} requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/events/")
	if path == "" || strings.Contains(path, "/") {
		fail(w, NewKind(op, ErrBadRequest))
		return
	}
	key, err := model.ParseEventKey(path)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sum, err := h.deps.Summary(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(w, WrapKind(op, ErrNotFound, err))
			return
		}
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
