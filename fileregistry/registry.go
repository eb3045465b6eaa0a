package fileregistry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/manifest"
)

// Option configures Register.
type Option func(*options)

type options struct {
	skipDuplicates bool
}

// WithSkipDuplicates makes Register keep already registered entries and skip
// manifests whose id collides, instead of failing with promptreg.ErrDuplicateID.
// Skipped ids are returned by Register.
func WithSkipDuplicates() Option {
	return func(o *options) { o.skipDuplicates = true }
}

// Register parses every manifest under dir and adds it to r.
// Returns the ids that were skipped because of WithSkipDuplicates.
func Register(r *promptreg.Registry, dir string, opts ...Option) (skipped []string, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fileregistry: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fileregistry: %s is not a directory", dir)
	}
	entries, err := manifest.LoadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("fileregistry: %s: %w", filepath.Clean(dir), err)
	}
	for _, e := range entries {
		if _, getErr := r.Get(e.ID()); getErr == nil && o.skipDuplicates {
			skipped = append(skipped, e.ID())
			continue
		}
		if err := r.Register(e); err != nil {
			return skipped, fmt.Errorf("fileregistry: %w", err)
		}
	}
	return skipped, nil
}
