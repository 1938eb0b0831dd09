package store

import "errors"

var (
	// ErrNotFound is returned when a lookup finds no matching row.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateInbound is returned when an insert collides with an
	// existing idempotency_key.
	ErrDuplicateInbound = errors.New("store: duplicate inbound message")

	// ErrTaskExists is returned when a task already exists for an inbound
	// message (source_inbound_id is unique).
	ErrTaskExists = errors.New("store: task already exists for inbound message")
)
