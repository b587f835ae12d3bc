/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users/*      Public account lifecycle (register, login, tokens)
  /api/users/in/*   Authenticated self-service
  /api/users/...    Admin account management
  /api/holidays/*   Holiday requests (authenticated; PATCH/filter admin)

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Bearer-token authentication
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/holiday-engine/auth"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, issuer *auth.TokenIssuer) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	authenticate := Authenticator(issuer)

	r.Route("/api", func(r chi.Router) {
		// Public account routes
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Register)
			r.Post("/login", h.Login)
			r.Get("/activate", h.Activate)
			r.Post("/refresh", h.RefreshActivation)
			r.Post("/lost", h.LostPassword)
			r.Patch("/new", h.NewPassword)

			// Authenticated self-service
			r.Route("/in", func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/user", h.Profile)
				r.Get("/role", h.Role)
				r.Get("/ledger", h.Ledger)
				r.Patch("/password", h.ChangePassword)
				r.Patch("/email", h.ChangeEmail)
				r.Delete("/", h.DeleteSelf)
			})

			// Admin account management
			r.Group(func(r chi.Router) {
				r.Use(authenticate, RequireAdmin)
				r.Get("/{id}", h.GetEmployee)
				r.Post("/filter", h.FilterEmployees)
				r.Patch("/update", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
			})
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", h.CreateHoliday)
				r.Get("/", h.ListHolidays)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, RequireAdmin)
				r.Patch("/", h.ChangeHolidayStatus)
				r.Post("/filter", h.FilterHolidays)
			})
		})
	})

	return r
}
