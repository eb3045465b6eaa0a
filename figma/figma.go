// Package figma ships the Figma design-guidance prompts and registers them.
// Register is the single registration entry point; the manifests are embedded
// and registered in file-name order.
package figma

import (
	"embed"
	"fmt"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/manifest"
)

// Shipped prompt ids.
const (
	DesignStrategy          = "design_strategy"
	ReadDesignStrategy      = "read_design_strategy"
	TextReplacementStrategy = "text_replacement_strategy"
)

//go:embed prompts/*.yaml
var promptsFS embed.FS

// Entries parses the embedded manifests. Each call returns fresh entries.
func Entries() ([]promptreg.Entry, error) {
	return manifest.LoadFS(promptsFS, "prompts")
}

// Register adds every shipped prompt to r. A collision with an already
// registered id is returned as promptreg.ErrDuplicateID; nothing is overwritten.
func Register(r *promptreg.Registry) error {
	entries, err := Entries()
	if err != nil {
		return fmt.Errorf("figma: load embedded prompts: %w", err)
	}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return fmt.Errorf("figma: %w", err)
		}
	}
	return nil
}
