package domain

import (
	"errors"
	"net/url"
	"strconv"
)

var (
	// ErrUnauthorized is returned for bad admin credentials and for
	// registration tokens that are unknown or already spent.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when an operation references an unknown identifier.
	ErrNotFound = errors.New("service not found")

	// ErrInvalid is returned for malformed client input.
	ErrInvalid = errors.New("invalid argument")
)

// Service represents a registered endpoint.
//
// Identifier is generated by the registry and never changes.
// Address is derived from the registering connection, never from the payload.
type Service struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Identifier is the opaque unique identifier (UUIDv4).
	Identifier string `json:"identifier"`

	// Address is the scheme://host:port the service was registered from.
	// Example: http://10.0.0.4:8080
	Address string `json:"address"`

	// ─────────────────────────────
	// Functional description
	// ─────────────────────────────

	// ServiceType is a free-form classification.
	// Example: web, billing, cache
	ServiceType string `json:"service_type"`

	// HealthcheckEndpoint is resolved against Address when probing.
	// Example: /health
	HealthcheckEndpoint string `json:"healthcheck_endpoint"`

	// ─────────────────────────────
	// State
	// ─────────────────────────────

	// IsAccepted is toggled by admin action only.
	IsAccepted bool `json:"is_accepted"`

	// Available is the result of the most recent completed probe.
	// Only the health-check scheduler writes it.
	Available bool `json:"available"`
}

// ServiceDraft holds the client-supplied part of a registration.
type ServiceDraft struct {
	ServiceType         string
	HealthcheckEndpoint string
	Port                uint16
}

// HealthURL resolves the healthcheck endpoint against the service address.
func (s Service) HealthURL() (string, error) {
	return resolve(s.Address, s.HealthcheckEndpoint)
}

// FormValues encodes the service fields the way callbacks carry them.
func (s Service) FormValues() url.Values {
	v := url.Values{}
	v.Set("identifier", s.Identifier)
	v.Set("address", s.Address)
	v.Set("service_type", s.ServiceType)
	v.Set("healthcheck_endpoint", s.HealthcheckEndpoint)
	v.Set("is_accepted", strconv.FormatBool(s.IsAccepted))
	v.Set("available", strconv.FormatBool(s.Available))
	return v
}

// Subscriber asks for callbacks about one service identifier.
// Endpoint is captured at subscribe time and never mutated.
type Subscriber struct {
	TargetIdentifier     string
	NotifyOnRegistration bool
	NotifyOnAcceptance   bool
	Endpoint             string
}

// Wants reports whether the subscriber asked for events of this kind.
func (s Subscriber) Wants(kind EventKind) bool {
	switch kind {
	case EventRegistered:
		return s.NotifyOnRegistration
	case EventAccepted:
		return s.NotifyOnAcceptance
	default:
		return false
	}
}

// CallbackURL returns the URL a notification about svc is POSTed to.
// Absolute endpoints are used as is, relative ones are resolved against
// the service address.
func (s Subscriber) CallbackURL(svc Service) (string, error) {
	return resolve(svc.Address, s.Endpoint)
}

// Filter narrows a listing. Nil fields do not constrain.
// Only accepted services are ever listed.
type Filter struct {
	ServiceType *string
	Available   *bool
	Limit       *int
}

// Match reports whether svc passes the predicates (limit excluded).
func (f Filter) Match(svc Service) bool {
	if !svc.IsAccepted {
		return false
	}
	if f.ServiceType != nil && svc.ServiceType != *f.ServiceType {
		return false
	}
	if f.Available != nil && svc.Available != *f.Available {
		return false
	}
	return true
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if b.Scheme == "" || b.Host == "" {
		return "", errors.New("address is not an absolute url: " + base)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
