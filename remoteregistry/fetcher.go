package remoteregistry

import (
	"context"

	"github.com/skosovsky/promptreg"
)

// Fetcher fetches raw YAML manifest bytes by prompt id.
// HTTP and Git are typical implementations.
//
// Return ErrNotFound when the manifest does not exist; Source translates it to promptreg.ErrNotFound.
// Wrap other errors in ErrFetchFailed so callers can use errors.Is.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Lister is optional. When implemented by Fetcher, Source.Register without ids registers every listed id.
type Lister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// ValidateID checks that id is safe for use in paths and cache keys.
// Delegates to promptreg.ValidateID so all loaders share the same rules.
func ValidateID(id string) error {
	return promptreg.ValidateID(id)
}

// CandidatePaths returns manifest filename candidates in resolution order: id.yaml, id.yml.
// Call ValidateID(id) before using the result with filesystem paths.
func CandidatePaths(id string) []string {
	return []string{id + ".yaml", id + ".yml"}
}
