// Package remoteregistry registers prompt manifests served by a remote Fetcher
// (HTTP or Git). A Source caches parsed manifests with a configurable TTL and
// collapses concurrent fetches of the same id; entries registered through
// Source.Register re-read their manifest through that cache on every Invoke,
// so an upstream failure surfaces as an Invoke error wrapped in ErrFetchFailed.
package remoteregistry
