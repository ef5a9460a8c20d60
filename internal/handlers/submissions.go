package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/app"
	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/metrics"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/query"
)

const maxBodyBytes = 1 << 20

type Authorizer interface {
	Authorize(r *http.Request) (string, error)
}

type SubmissionHandler struct {
	service *app.Service
	auth    Authorizer
}

func NewSubmissionHandler(service *app.Service) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		auth:    service.Auth,
	}
}

// Register wires every route onto mux.
func (h *SubmissionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/submissions", h.instrument(h.HandleSubmit))
	mux.HandleFunc("GET /api/v1/preview", h.instrument(h.HandlePreview))

	mux.HandleFunc("GET /api/v1/submissions", h.instrument(h.staff(h.HandleList)))
	mux.HandleFunc("POST /api/v1/submissions/refresh", h.instrument(h.staff(h.HandleRefresh)))
	mux.HandleFunc("GET /api/v1/submissions/export", h.instrument(h.staff(h.HandleExport)))
	mux.HandleFunc("GET /api/v1/submissions/{id}/preview", h.instrument(h.staff(h.HandleRowPreview)))
	mux.HandleFunc("DELETE /api/v1/submissions/{id}", h.instrument(h.staff(h.HandleDelete)))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *SubmissionHandler) instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		metrics.APIRequestDuration.WithLabelValues(
			r.Pattern,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	}
}

func (h *SubmissionHandler) staff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := h.auth.Authorize(r)
		if err != nil {
			logger.Error.Printf("Auth failed: %v", err)
			if !errors.Is(err, apperror.ErrForbidden) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			writeError(w, err)
			return
		}
		if email != "" {
			logger.Debug.Printf("%s %s by %s", r.Method, r.URL.Path, email)
		}
		next(w, r)
	}
}

type submitResponse struct {
	Mode       models.Mode       `json:"mode"`
	ID         string            `json:"id,omitempty"`
	Note       string            `json:"note,omitempty"`
	Submission models.Submission `json:"submission"`
}

func (h *SubmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var form models.Form
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		logger.Debug.Printf("Failed to decode submission: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, res, err := h.service.Submit(r.Context(), form, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Mode:       res.Mode,
		ID:         res.ID,
		Note:       res.Note(),
		Submission: sub,
	})
}

func (h *SubmissionHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Preview(r.URL.Query().Get("link"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"project_id":  link.ID,
		"project_url": link.URL,
		"embed_url":   link.Embed,
	})
}

func criteriaFrom(r *http.Request) query.Criteria {
	q := r.URL.Query()
	return query.Criteria{Class: q.Get("class"), Name: q.Get("name")}
}

func (h *SubmissionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Engine.Query(r.Context(), criteriaFrom(r))
	h.writeResult(w, res, err)
}

func (h *SubmissionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Engine.Refresh(r.Context()); err != nil {
		logger.Error.Printf("Refresh failed: %v", err)
	}
	res, err := h.service.Engine.Query(r.Context(), criteriaFrom(r))
	h.writeResult(w, res, err)
}

func (h *SubmissionHandler) writeResult(w http.ResponseWriter, res query.Result, err error) {
	if err != nil {
		writeJSON(w, statusFor(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SubmissionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Engine.Query(r.Context(), criteriaFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", query.ExportMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.service.Config.Export.Filename))
	if err := query.WriteCSV(w, res.Rows); err != nil {
		logger.Error.Printf("Failed to write CSV export: %v", err)
		return
	}
	metrics.ExportsTotal.WithLabelValues("http").Inc()
}

func (h *SubmissionHandler) HandleRowPreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	row, embed, err := h.service.RowPreview(id)
	if errors.Is(err, apperror.ErrValidation) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":           row.ID,
		"student_name": row.StudentName,
		"embed_url":    embed,
	})
}

func (h *SubmissionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Engine.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "Deleted."})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrLoadFailed), errors.Is(err, apperror.ErrDeleteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	writeJSON(w, statusFor(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}
