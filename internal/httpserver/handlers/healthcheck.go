package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/registry/internal/logger"
)

// TriggerHealthcheck queues an immediate health check tick.
func TriggerHealthcheck(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.HealthcheckTrigger <- struct{}{}:
			d.Logger.Info("manual health check triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Health check triggered\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("health check already queued",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Health check already queued, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
