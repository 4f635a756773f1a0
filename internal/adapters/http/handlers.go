package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cafetrace/exportflow/internal/application"
	"github.com/cafetrace/exportflow/internal/domain"
)

const maxDocumentBytes = 16 << 20

func (h *Handler) createExport(w http.ResponseWriter, r *http.Request) {
	var req application.CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	record, err := h.service.CreateExport(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, record)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetCurrent(r.Context(), chi.URLParam(r, "export_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, record)
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	org := r.URL.Query().Get("org")

	var (
		records []domain.ExportRecord
		err     error
	)
	switch {
	case status != "" && org != "":
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "filter by either status or org, not both")
		return
	case status != "":
		records, err = h.service.ListByStatus(r.Context(), status)
	case org != "":
		records, err = h.service.ListByOrganization(r.Context(), domain.Organization(org))
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "status or org query parameter is required")
		return
	}
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, records)
}

func (h *Handler) availableActions(w http.ResponseWriter, r *http.Request) {
	org := actorFromContext(r.Context()).Org
	if raw := r.URL.Query().Get("org"); raw != "" {
		org = domain.Organization(raw)
	}
	actions, err := h.service.AvailableActions(r.Context(), chi.URLParam(r, "export_id"), org)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, actions)
}

func (h *Handler) applyAction(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body")
		return
	}
	record, err := h.service.Apply(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "export_id"), application.ApplyActionRequest{
		Action:  chi.URLParam(r, "action"),
		Payload: payload,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, record)
}

func (h *Handler) addDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body")
		return
	}
	doc, err := h.service.AddDocument(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "export_id"), application.AddDocumentRequest{
		Category:    domain.DocumentCategory(r.URL.Query().Get("category")),
		ContentType: r.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, doc)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid document version")
		return
	}
	data, err := h.service.GetDocument(r.Context(), chi.URLParam(r, "export_id"),
		domain.DocumentCategory(chi.URLParam(r, "category")), version)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) deactivateDocument(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid document version")
		return
	}
	if err := h.service.DeactivateDocument(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "export_id"),
		domain.DocumentCategory(chi.URLParam(r, "category")), version); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeMessage(w, http.StatusOK, "document deactivated")
}

func (h *Handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		ExportID: chi.URLParam(r, "export_id"),
		ActorOrg: domain.Organization(r.URL.Query().Get("org")),
		Action:   domain.Action(r.URL.Query().Get("action")),
	}
	if raw := r.URL.Query().Get("success"); raw != "" {
		success, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid success filter")
			return
		}
		filter.Success = &success
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid from timestamp")
			return
		}
		filter.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid to timestamp")
			return
		}
		filter.To = t
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, parseErr := strconv.Atoi(raw)
		if parseErr != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid limit")
			return
		}
		filter.Limit = limit
	}
	entries, err := h.service.AuditTrail(r.Context(), filter)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}
