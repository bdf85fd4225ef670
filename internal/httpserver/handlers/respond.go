package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/logger"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", logger.Error(err))
	} else {
		log.Debug("request rejected", logger.Int("status", code), logger.Error(err))
	}
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, log logger.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

// form parses the request body and checks every key is present.
// Present but empty values are allowed.
func form(r *http.Request, keys ...string) error {
	if err := r.ParseForm(); err != nil {
		return errors.Join(domain.ErrInvalid, err)
	}
	for _, k := range keys {
		if _, ok := r.PostForm[k]; !ok {
			return errors.Join(domain.ErrInvalid, errors.New("missing field "+k))
		}
	}
	return nil
}
