package domain

import "time"

// EventKind names a registry state transition.
type EventKind string

const (
	// EventRegistered and EventAccepted trigger subscriber callbacks.
	EventRegistered EventKind = "registered"
	EventAccepted   EventKind = "accepted"

	// EventDisabled and EventAvailabilityChanged only feed the event stream.
	EventDisabled            EventKind = "disabled"
	EventAvailabilityChanged EventKind = "availability_changed"
)

// Callback reports whether subscribers may be called back for this kind.
func (k EventKind) Callback() bool {
	return k == EventRegistered || k == EventAccepted
}

// Event is a transition together with the service it concerns.
type Event struct {
	Kind    EventKind `json:"kind"`
	Service Service   `json:"service"`
	At      time.Time `json:"at"`
}
