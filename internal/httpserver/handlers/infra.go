package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Total     *int   `json:"total,omitempty"`
	Accepted  *int   `json:"accepted,omitempty"`
	Available *int   `json:"available,omitempty"`
	Pending   *int   `json:"pending_tokens,omitempty"`
	LastTick  string `json:"last_tick,omitempty"`
	Probed    *int   `json:"probed,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, accepted, available := d.Store.Counts()
		pending := d.Store.PendingTokens()
		subscribers := d.Store.SubscriberCount()

		components := map[string]componentStatus{
			"registry": {
				OK:        true,
				Total:     &total,
				Accepted:  &accepted,
				Available: &available,
				Pending:   &pending,
			},
			"notifier": {
				OK:    true,
				Mode:  "callbacks",
				Total: &subscribers,
			},
			"healthcheck": checkHealthcheck(d),
			"redis":       checkRedis(r.Context(), d),
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// A checker that never ran means availability flags are all stale
	if hc, exists := components["healthcheck"]; exists && !hc.OK {
		return "degraded"
	}

	// Redis only carries the event feed
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "operational"
}

func checkHealthcheck(d deps.Deps) componentStatus {
	if d.HealthChecker == nil {
		return componentStatus{OK: false, Error: "not initialized"}
	}

	last, summary := d.HealthChecker.LastTick()
	if last.IsZero() {
		return componentStatus{OK: false, LastTick: "never", Impact: "availability-unknown"}
	}

	return componentStatus{
		OK:        true,
		LastTick:  last.Format("2006-01-02 15:04:05"),
		Probed:    &summary.Probed,
		Available: &summary.Available,
		Duration:  summary.Duration.String(),
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Events == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "event-feed-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Events.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "event-feed-unavailable",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "event-feed-enabled",
	}
}
