// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/service"
)

// Handler holds all HTTP handlers for the catalog API.
type Handler struct {
	workshops     *service.WorkshopService
	registrations *service.RegistrationService
	students      *service.StudentService
	stats         *service.StatsService
	logger        *slog.Logger
}

// New constructs a Handler.
func New(
	workshops *service.WorkshopService,
	registrations *service.RegistrationService,
	students *service.StudentService,
	stats *service.StatsService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		workshops:     workshops,
		registrations: registrations,
		students:      students,
		stats:         stats,
		logger:        logger,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// fail maps a service error onto a status code. Unclassified errors are
// logged in full and reported with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, model.ErrRegistrationNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "workshop is fully booked")
	case errors.Is(err, model.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "you are already registered for this workshop")
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, "workshop is being modified, please retry")
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Workshops ────────────────────────────────────────────────────────────────

// ListWorkshops handles GET /workshops
func (h *Handler) ListWorkshops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	workshops := h.workshops.List(r.Context(), model.ListWorkshopsFilter{
		Query:    q.Get("q"),
		Category: q.Get("categoria"),
		DateFrom: q.Get("fechaDesde"),
		DateTo:   q.Get("fechaHasta"),
		Limit:    limit,
	})
	views := make([]model.WorkshopView, len(workshops))
	for i, ws := range workshops {
		views[i] = model.NewWorkshopView(ws)
	}
	writeJSON(w, http.StatusOK, views)
}

// GetWorkshop handles GET /workshops/{id}
func (h *Handler) GetWorkshop(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workshops.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewWorkshopView(*ws))
}

// CreateWorkshop handles POST /workshops
func (h *Handler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if err := caller.Admin(); err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.CreateWorkshopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ws, err := h.workshops.Create(r.Context(), caller, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.NewWorkshopView(*ws))
}

// UpdateWorkshop handles PUT /workshops/{id}
func (h *Handler) UpdateWorkshop(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if err := caller.Admin(); err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.UpdateWorkshopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ws, err := h.workshops.Update(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewWorkshopView(*ws))
}

// DeleteWorkshop handles DELETE /workshops/{id}
func (h *Handler) DeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	if err := h.workshops.Delete(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "workshop deleted"})
}

// ─── Registrations ────────────────────────────────────────────────────────────

// Register handles POST /workshops/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registrations.Register(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewWorkshopView(*ws))
}

// Unregister handles DELETE /workshops/{id}/register
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	ws, err := h.registrations.Unregister(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewWorkshopView(*ws))
}

// MyRegistrations handles GET /registrations/me
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	mine, err := h.registrations.ListForStudent(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

// ─── Students ─────────────────────────────────────────────────────────────────

// EnsureProfile handles POST /students/me
func (h *Handler) EnsureProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.students.EnsureProfile(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListStudents handles GET /students
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// DeleteStudent handles DELETE /students/{id}
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	u, err := h.students.Delete(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "student deleted", "email": u.Email})
}

// ─── Aggregates ───────────────────────────────────────────────────────────────

// Stats handles GET /stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Stats(r.Context()))
}

// Categories handles GET /categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.CategoryBreakdown(r.Context()))
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
