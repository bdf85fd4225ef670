package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/registry/internal/logger"
)

const defaultEventsLimit = 50

// RecentEvents returns the newest events from the Redis feed.
func RecentEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Events == nil {
			http.Error(w, "event feed disabled", http.StatusServiceUnavailable)
			return
		}

		limit := defaultEventsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, d.Logger, errors.Join(domain.ErrInvalid, err))
				return
			}
			if n <= 0 {
				writeError(w, d.Logger, fmt.Errorf("%w: limit must be > 0", domain.ErrInvalid))
				return
			}
			limit = n
		}

		events, err := d.Events.Recent(r.Context(), limit)
		if err != nil {
			d.Logger.Warn("failed to read recent events", logger.Error(err))
			http.Error(w, "event feed unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, events)
	}
}
