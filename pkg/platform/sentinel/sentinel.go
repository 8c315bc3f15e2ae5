package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, transports and clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: an entity with the same key already exists
// - ErrUnavailable: service or resource temporarily unavailable
// - ErrCircuitOpen: a circuit breaker rejected the call without attempting it
// - ErrUnknownEvent: a consumed event carries a type the consumer cannot apply
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
	ErrCircuitOpen  = errors.New("circuit open")
	ErrUnknownEvent = errors.New("unknown event type")
)
