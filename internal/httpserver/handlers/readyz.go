package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready           bool  `json:"ready"`
	HealthcheckRuns int64 `json:"healthcheck_runs"`
}

// Readyz reports ready once the store is wired. Health check progress is
// informative only: a registry with no tick yet still serves lookups.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: d.Store != nil && d.Gate != nil}
		if d.HealthChecker != nil {
			resp.HealthcheckRuns = d.HealthChecker.Ticks()
		}

		code := http.StatusOK
		if !resp.Ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, d.Logger, code, resp)
	}
}
