package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/registry/internal/logger"
	"github.com/MrSnakeDoc/registry/internal/utils"
)

// AllowOnlyCIDRS restricts a route to the listed IPs/CIDRs. An empty list
// lets everything through.
// trustProxy should be true when running behind a trusted reverse proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("operator endpoints open, no admin CIDRs configured")
		return func(next http.Handler) http.Handler { return next }
	}

	log = log.With(logger.Component("cidr-gate"))
	log.Debug("operator endpoints restricted",
		logger.Int("rules", len(allowed)),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debug("rejected",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
