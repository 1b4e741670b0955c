package venueclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a venue failure per the taxonomy in spec.md §7. The
// Orchestrator and retry layer branch on this, never on error string text.
type ErrorKind int

const (
	// KindUnknown should never reach a caller; its presence signals a bug
	// in this package's classification, not the venue.
	KindUnknown ErrorKind = iota
	// KindTransient covers network errors, 5xx, 429, and deadline expiry.
	// Eligible for retry with backoff.
	KindTransient
	// KindPermanent covers 4xx (other than 429) and schema violations.
	// Never retried; the offending market is skipped.
	KindPermanent
	// KindMalformed is a payload that didn't decode into the declared
	// shape. Never retried; returned to the caller on the first attempt.
	KindMalformed
	// KindCircuitOpen is returned when the breaker is short-circuiting
	// calls during its cooldown window.
	KindCircuitOpen
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindMalformed:
		return "malformed"
	case KindCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// VenueError wraps a venue failure with its classification.
type VenueError struct {
	Venue string
	Op    string
	Kind  ErrorKind
	Err   error
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue %s: %s: %s: %v", e.Venue, e.Op, e.Kind, e.Err)
}

func (e *VenueError) Unwrap() error { return e.Err }

// Retryable reports whether a retry loop should attempt this error again.
func (e *VenueError) Retryable() bool { return e.Kind == KindTransient }

// ErrCircuitOpen is returned by a Client wrapped in a Breaker while its
// circuit is open and no probe call is currently permitted.
var ErrCircuitOpen = errors.New("venueclient: circuit open")

func classify(venue, op string, kind ErrorKind, err error) *VenueError {
	return &VenueError{Venue: venue, Op: op, Kind: kind, Err: err}
}
