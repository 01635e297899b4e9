/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the display client

ROUTE GROUPS:
  /api/users/*          Accounts and save slots
  /api/saves/*          Save slot deletion
  /api/session/*        The attached save
  /api/leaderboard/*    Rankings
  /api/catalog          Purchase catalog
  /api/scenarios/*      Demo saves
  /api/admin/*          Tunables
  /ws                   WebSocket change notifications
  /metrics              Prometheus

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// allowedOrigins feeds the CORS policy; nil allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}/bulk-buy", h.SetBulkBuy)
			r.Get("/{id}/saves", h.ListSaves)
			r.Post("/{id}/saves", h.CreateSave)
		})

		r.Delete("/saves/{id}", h.DeleteSave)

		r.Route("/session", func(r chi.Router) {
			r.Post("/", h.Attach)
			r.Get("/", h.GetSession)
			r.Delete("/", h.Detach)
			r.Post("/click", h.Click)
			r.Post("/purchases/{id}/buy", h.Buy)
			r.Post("/purchases/{id}/remove", h.Remove)
			r.Post("/reincarnate", h.Reincarnate)
			r.Post("/save", h.SaveNow)
			r.Get("/offline", h.GetOffline)
			r.Post("/offline/cancel", h.CancelOffline)
			r.Get("/transactions", h.GetTransactions)
		})

		r.Get("/leaderboard/{dependency}", h.GetLeaderboard)
		r.Get("/catalog", h.GetCatalog)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/variables", h.ListVariables)
			r.Put("/variables/{name}", h.SetVariable)
		})
	})

	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}
	if h.Metrics != nil {
		r.Method("GET", "/metrics", h.Metrics.Handler())
	}

	return r
}
