package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
)

// Find lists accepted services matching the optional query filters.
func Find(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, d.Store.ListServices(f))
	}
}

func parseFilter(q url.Values) (domain.Filter, error) {
	var f domain.Filter

	if q.Has("service_type") {
		st := q.Get("service_type")
		f.ServiceType = &st
	}

	if q.Has("available") {
		b, err := strconv.ParseBool(q.Get("available"))
		if err != nil {
			return f, errors.Join(domain.ErrInvalid, err)
		}
		f.Available = &b
	}

	if q.Has("limit") {
		n, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return f, errors.Join(domain.ErrInvalid, err)
		}
		if n < 0 {
			return f, fmt.Errorf("%w: negative limit", domain.ErrInvalid)
		}
		f.Limit = &n
	}

	return f, nil
}
