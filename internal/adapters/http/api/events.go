package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/vertexntuples/internal/domain/dedupe"
	"github.com/okian/vertexntuples/internal/domain/model"
)

// EventDependencies defines the interface for event processing dependencies
type EventDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.Event) bool
}

// EventsHandler handles event requests
type EventsHandler struct {
	deps         EventDependencies
	maxBodyBytes int64
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(deps EventDependencies, maxBodyBytes int64) *EventsHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &EventsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostEvent handles POST /events requests
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var ev model.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&ev); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(w, WrapKind(op, ErrTooLarge, err))
			return
		}
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if ev.Key.IsZero() {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("missing event key")))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), ev.Key) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Key: ev.Key.String()})
		return
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), ev); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), ev.Key)
		fail(w, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Key: ev.Key.String()})
}
