package domain

import "errors"

var (
	// ErrInvalidInput marks caller-contract violations such as a missing
	// airport or an unparseable departure time.
	ErrInvalidInput = errors.New("invalid input")

	ErrAirportNotFound = errors.New("airport not found")
)
