package storage

import (
	"errors"
)

// Error definitions
var (
	// ErrInvalidKey is returned when the key is empty
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrNotConnected is returned when an operation is attempted on a closed engine
	ErrNotConnected = errors.New("storage engine not connected")

	// ErrUnknownEngine is returned by Open for an unsupported engine name
	ErrUnknownEngine = errors.New("unknown storage engine")

	// ErrMissingDSN is returned when a network or file engine has no address configured
	ErrMissingDSN = errors.New("storage engine address not configured")
)
