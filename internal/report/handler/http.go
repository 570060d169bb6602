// Package handler exposes report CRUD and attachments over HTTP. All routes
// sit behind the approved-session middleware.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	reportservice "report-api/internal/report/service"
	"report-api/internal/server/httpjson"
	"report-api/internal/server/middleware"
)

const (
	maxBodyBytes   = 1 << 16
	maxUploadBytes = 32 << 20
)

// ReportHandler wires HTTP report endpoints to the report service.
type ReportHandler struct {
	reports *reportservice.ReportService
}

// NewReportHandler returns a new ReportHandler.
func NewReportHandler(reports *reportservice.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Register wires the report routes onto mux.
func (h *ReportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reports", h.handleCreate)
	mux.HandleFunc("GET /api/reports", h.handleList)
	mux.HandleFunc("GET /api/reports/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/reports/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/reports/{id}", h.handleDelete)
	mux.HandleFunc("POST /api/reports/{id}/attachments", h.handleAttach)
	mux.HandleFunc("GET /api/reports/{id}/attachments/{attachment_id}", h.handleDownload)
}

type reportRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *ReportHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	var req reportRequest
	if err := httpjson.Decode(w, r, maxBodyBytes, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	rep, err := h.reports.Create(r.Context(), account, req.Title, req.Body)
	if err != nil {
		writeReportError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, rep)
}

func (h *ReportHandler) handleList(w http.ResponseWriter, r *http.Request) {
	reps, err := h.reports.List(r.Context())
	if err != nil {
		writeReportError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, reps)
}

func (h *ReportHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeReportError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rep)
}

func (h *ReportHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	var req reportRequest
	if err := httpjson.Decode(w, r, maxBodyBytes, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	rep, err := h.reports.Update(r.Context(), account, r.PathValue("id"), req.Title, req.Body)
	if err != nil {
		writeReportError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rep)
}

func (h *ReportHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	if err := h.reports.Delete(r.Context(), account, r.PathValue("id")); err != nil {
		writeReportError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) handleAttach(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	att, err := h.reports.Attach(r.Context(), account, r.PathValue("id"),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeReportError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, att)
}

func (h *ReportHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	att, rc, err := h.reports.OpenAttachment(r.Context(), r.PathValue("id"), r.PathValue("attachment_id"))
	if err != nil {
		writeReportError(w, err)
		return
	}
	defer func() { _ = rc.Close() }()

	if att.ContentType != "" {
		w.Header().Set("Content-Type", att.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(att.Size, 10))
	w.Header().Set("Content-Disposition", `inline; filename="`+att.Name+`"`)
	_, _ = io.Copy(w, rc)
}

func writeReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportservice.ErrReportNotFound):
		httpjson.Error(w, http.StatusNotFound, "report_not_found", "report not found")
	case errors.Is(err, reportservice.ErrAttachmentNotFound):
		httpjson.Error(w, http.StatusNotFound, "attachment_not_found", "attachment not found")
	case errors.Is(err, reportservice.ErrPermissionDenied):
		httpjson.Error(w, http.StatusForbidden, "permission_denied", "account may not perform this action")
	default:
		httpjson.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
