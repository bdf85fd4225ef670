package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// NewToken issues a single-use registration token to the admin.
func NewToken(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form(r, "login", "password"); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		token, err := d.Gate.Login(r.PostFormValue("login"), r.PostFormValue("password"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, tokenResponse{Token: token})
	}
}
