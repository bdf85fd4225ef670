package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
)

type adminOp func(login, password, identifier string) error

// AcceptService makes a registered service visible to lookups.
func AcceptService(d deps.Deps) http.HandlerFunc {
	return adminAction(d, d.Gate.Accept)
}

// DisableService hides a service from lookups again.
func DisableService(d deps.Deps) http.HandlerFunc {
	return adminAction(d, d.Gate.Disable)
}

func adminAction(d deps.Deps, op adminOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form(r, "login", "password", "identifier"); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		err := op(r.PostFormValue("login"), r.PostFormValue("password"), r.PostFormValue("identifier"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
