package constant

import "errors"

var (
	// ErrNotFound is returned when an update targets an id the store does not hold.
	ErrNotFound = errors.New("note not found")

	// ErrDuplicateId is returned by Insert when the id is already live.
	ErrDuplicateId = errors.New("duplicate note id")

	// ErrMalformedPayload marks a mutation request that failed decoding or validation.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrDurableUnavailable wraps any failure of the durable mirror. It is
	// logged and absorbed, never surfaced to clients.
	ErrDurableUnavailable = errors.New("durable backing unavailable")
)
