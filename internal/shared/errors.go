package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrNotReady indicates an upstream source has not been fetched yet;
	// aggregating over partial input is never attempted.
	ErrNotReady = errors.New("source data not ready")
	// ErrInvalidInput indicates request validation failed.
	ErrInvalidInput = errors.New("invalid input")
)
