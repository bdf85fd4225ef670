package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
)

// Subscribe registers a callback endpoint for events about a service.
func Subscribe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form(r, "login", "password", "identifier", "on_registration", "on_acceptance", "endpoint"); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		onRegistration, err := strconv.ParseBool(r.PostFormValue("on_registration"))
		if err != nil {
			writeError(w, d.Logger, errors.Join(domain.ErrInvalid, err))
			return
		}
		onAcceptance, err := strconv.ParseBool(r.PostFormValue("on_acceptance"))
		if err != nil {
			writeError(w, d.Logger, errors.Join(domain.ErrInvalid, err))
			return
		}

		sub := domain.Subscriber{
			TargetIdentifier:     r.PostFormValue("identifier"),
			NotifyOnRegistration: onRegistration,
			NotifyOnAcceptance:   onAcceptance,
			Endpoint:             r.PostFormValue("endpoint"),
		}
		if err := d.Gate.Subscribe(r.PostFormValue("login"), r.PostFormValue("password"), sub); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
