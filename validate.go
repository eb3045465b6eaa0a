package promptreg

import (
	"fmt"
	"strings"
	"unicode"
)

// maxIDLength bounds prompt ids; hosts echo them in listings and error messages.
const maxIDLength = 128

// ValidateID checks that id is safe for use as a registry key, a file name stem and a URL path segment.
// Rejects empty ids, "." and "..", path separators, ':' and whitespace or control characters.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidName)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: id longer than %d bytes", ErrInvalidName, maxIDLength)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, id)
	}
	if strings.ContainsAny(id, `/\:`) {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, id)
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, id)
		}
	}
	return nil
}
