package remoteregistry

import "errors"

// Sentinel errors for remote registry operations.
// Callers should use errors.Is to check.
var (
	// ErrFetchFailed indicates the Fetcher could not retrieve the manifest.
	ErrFetchFailed = errors.New("remoteregistry: fetch failed")
	// ErrHTTPStatus indicates an unexpected HTTP status (e.g. 500) when using HTTPFetcher.
	ErrHTTPStatus = errors.New("remoteregistry: unexpected HTTP status")
	// ErrNotFound indicates no manifest was found for the given id; Source wraps it in promptreg.ErrNotFound.
	ErrNotFound = errors.New("remoteregistry: no manifest found")
	// ErrIDMismatch indicates a manifest whose id differs from the id it was fetched by.
	ErrIDMismatch = errors.New("remoteregistry: manifest id does not match requested id")
	// ErrNoIDs indicates Register was called without ids and the Fetcher cannot list them.
	ErrNoIDs = errors.New("remoteregistry: no ids given and fetcher does not implement Lister")
	// ErrInvalidIndex indicates an index document that is not a list of unique valid ids.
	ErrInvalidIndex = errors.New("remoteregistry: invalid index")
	// ErrArgumentsChanged indicates a refreshed manifest whose arguments differ from the registered ones.
	// The registry listing is fixed at registration, so the prompt must be re-registered.
	ErrArgumentsChanged = errors.New("remoteregistry: manifest arguments changed since registration")
)
