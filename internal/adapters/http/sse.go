package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cafetrace/exportflow/internal/domain"
)

const sseBuffer = 32

func (h *Handler) streamExportEvents(w http.ResponseWriter, r *http.Request) {
	if err := domain.ValidateExportID(chi.URLParam(r, "export_id")); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	h.stream(w, r, domain.TopicExport(chi.URLParam(r, "export_id")))
}

func (h *Handler) streamOrgEvents(w http.ResponseWriter, r *http.Request) {
	org := domain.Organization(chi.URLParam(r, "org"))
	if !domain.KnownOrganization(org) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("unknown organization %q", org))
		return
	}
	h.stream(w, r, domain.TopicOrg(org))
}

// stream pushes hub events over SSE until the client disconnects. Events
// missed while disconnected are gone; clients re-read current state after
// reconnecting instead of expecting a replay.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming unsupported")
		return
	}
	ch, cancel := h.hub.Subscribe(topic, sseBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.EventID, domain.EventTypeStatusChanged, payload)
			flusher.Flush()
		}
	}
}
