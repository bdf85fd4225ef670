package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/registry/internal/httpserver/handlers"
)

func init() { Register(registerAPI) }

// Registry API, used by services and the admin. Credentials are checked per operation.
func registerAPI(r chi.Router, d deps.Deps) {
	r.Post("/newtoken", handlers.NewToken(d))
	r.Post("/me", handlers.Register(d))
	r.Get("/find", handlers.Find(d))
	r.Post("/accept_service", handlers.AcceptService(d))
	r.Post("/disable_service", handlers.DisableService(d))
	r.Post("/subscribe", handlers.Subscribe(d))
}
