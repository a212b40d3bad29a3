package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/meter-reading-system/internal/middleware"
	"github.com/mmeshcher/meter-reading-system/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)

	adminOnly := custommiddleware.RequireRole(model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/me", h.Me)
			r.Put("/me/password", h.ChangePassword)
			r.Put("/me/contact", h.UpdateContact)

			r.With(custommiddleware.RequireRole(model.RoleReader, model.RoleAdmin)).Post("/readings", h.SubmitReading)
			r.Get("/readings", h.ListReadings)

			r.Get("/meters", h.ListMeters)
			r.Get("/meters/{meterID}/analytics", h.MeterAnalytics)

			r.With(adminOnly).Get("/analytics/summary", h.Summary)

			r.Route("/export", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/readings", h.ExportReadings)
				r.Get("/meters/{meterID}", h.ExportMeter)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)

				r.Post("/users", h.CreateUser)
				r.Get("/users", h.ListUsers)
				r.Put("/users/{userID}/role", h.UpdateUserRole)

				r.Post("/meters", h.CreateMeter)
				r.Put("/meters/{meterID}", h.UpdateMeter)
				r.Delete("/meters/{meterID}", h.DeleteMeter)
				r.Put("/meters/{meterID}/assignment", h.AssignMeter)
				r.Delete("/meters/{meterID}/assignment", h.UnassignMeter)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
