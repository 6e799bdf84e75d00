package persist

import (
	"errors"
	"fmt"
)

// Property store errors
var (
	ErrInvalidInput    = errors.New("invalid property store input")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrBackend         = errors.New("property backend failure")
	ErrBackendNil      = errors.New("property backend is nil")
)

// PatternCompileError reports a match pattern that is not a valid regular
// expression. It is returned when the pattern is registered, never when it is
// evaluated.
type PatternCompileError struct {
	Pattern string
	Err     error
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("invalid match pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternCompileError) Unwrap() error {
	return e.Err
}
