package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestTimeout bounds a whole request, including every retry of a
// contended registration.
const requestTimeout = 15 * time.Second

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(h *Handler, auth *Authenticator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(Logger(logger))
	r.Use(CORS)
	r.Use(auth.Middleware)

	r.Get("/health", HealthCheck)

	r.Route("/workshops", func(r chi.Router) {
		r.Get("/", h.ListWorkshops)
		r.Post("/", h.CreateWorkshop)
		r.Get("/{id}", h.GetWorkshop)
		r.Put("/{id}", h.UpdateWorkshop)
		r.Delete("/{id}", h.DeleteWorkshop)
		r.Post("/{id}/register", h.Register)
		r.Delete("/{id}/register", h.Unregister)
	})
	r.Get("/registrations/me", h.MyRegistrations)

	r.Route("/students", func(r chi.Router) {
		r.Get("/", h.ListStudents)
		r.Post("/me", h.EnsureProfile)
		r.Delete("/{id}", h.DeleteStudent)
	})

	r.Get("/stats", h.Stats)
	r.Get("/categories", h.Categories)

	return r
}
