// Package git provides a Fetcher that reads YAML prompt manifests from a Git repository.
// It clones the repo on first use, pulls on later fetches and reads files from the working tree.
// The Fetcher implements remoteregistry.Fetcher and remoteregistry.Lister, so
// remoteregistry.New(f).Register(ctx, r) registers every manifest in the configured directory.
package git
