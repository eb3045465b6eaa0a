package promptreg

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
// All use prefix "promptreg:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrDuplicateID     = errors.New("promptreg: prompt id already registered")
	ErrNotFound        = errors.New("promptreg: prompt not found in registry")
	ErrInvalidArgument = errors.New("promptreg: invalid prompt argument")
	ErrInvalidName     = errors.New("promptreg: invalid prompt id")
	ErrInvalidManifest = errors.New("promptreg: manifest file is malformed")
	ErrFrozen          = errors.New("promptreg: registry is frozen")
)

// ArgumentError wraps ErrInvalidArgument with argument and prompt context.
// Use errors.Is(err, ErrInvalidArgument) and errors.As(err, &argErr) to inspect.
type ArgumentError struct {
	Argument string
	Prompt   string
	Reason   string
	Err      error
}

// Error implements error.
func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("promptreg: argument %q of prompt %q: %v", e.Argument, e.Prompt, e.Err)
	}
	return fmt.Sprintf("promptreg: argument %q of prompt %q: %s: %v", e.Argument, e.Prompt, e.Reason, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/errors.As.
func (e *ArgumentError) Unwrap() error { return e.Err }

// Compile-time check that ArgumentError implements error.
var _ error = (*ArgumentError)(nil)
