package fusion

import "errors"

// Sentinel errors used across layers.
var (
	// ErrUnknownCommodity marks a reference to an id absent from the
	// commodity table.
	ErrUnknownCommodity = errors.New("unknown commodity")

	// ErrInvalidData marks malformed commodity or recipe definitions and
	// out-of-range request values.
	ErrInvalidData = errors.New("invalid data")
)
