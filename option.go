package promptreg

import "slices"

// EntryOption configures an Entry (functional options pattern).
type EntryOption func(*Entry)

// WithArguments declares the arguments the entry accepts.
// Generate rejects missing required arguments and names that are not declared.
func WithArguments(args ...Argument) EntryOption {
	return func(e *Entry) {
		e.arguments = append(e.arguments, slices.Clone(args)...)
	}
}
