package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/registry/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/registry/internal/httpserver/mw"
)

func init() { Register(registerOperator) }

func registerOperator(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger))

		r.Get("/healthz", handlers.Healthz(d))
		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/infra", handlers.Infra(d))
		r.Post("/healthcheck", handlers.TriggerHealthcheck(d))
		r.Get("/events", handlers.RecentEvents(d))
	})
}
