package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/registry/internal/utils"
)

type registerResponse struct {
	Identifier string `json:"identifier"`
}

// Register spends a token and records the calling service. The address is
// built from the connection, only the port comes from the form.
func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := form(r, "access_token", "service_type", "healthcheck_endpoint", "port"); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		port, err := strconv.ParseUint(r.PostFormValue("port"), 10, 16)
		if err != nil {
			writeError(w, d.Logger, errors.Join(domain.ErrInvalid, err))
			return
		}

		draft := domain.ServiceDraft{
			ServiceType:         r.PostFormValue("service_type"),
			HealthcheckEndpoint: r.PostFormValue("healthcheck_endpoint"),
			Port:                uint16(port),
		}

		svc, err := d.Gate.Register(r.PostFormValue("access_token"), draft, utils.ClientIP(r, d.TrustProxy))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, registerResponse{Identifier: svc.Identifier})
	}
}
