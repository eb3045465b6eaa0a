package promptreg

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
)

// Ensures Registry implements Source.
var _ Source = (*Registry)(nil)

// Registry stores entries by id. It is populated by a single writer at startup
// and then frozen; after Freeze every method is a read over immutable data and
// is safe for concurrent use. No mutex.
type Registry struct {
	entries map[string]Entry
	order   []string
	frozen  atomic.Bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register inserts e. Returns ErrDuplicateID if the id is taken (the first entry is kept)
// and ErrFrozen after Freeze.
func (r *Registry) Register(e Entry) error {
	if r.frozen.Load() {
		return fmt.Errorf("%w: register %q", ErrFrozen, e.id)
	}
	if e.generate == nil {
		return fmt.Errorf("%w: entry was not built with NewEntry", ErrInvalidName)
	}
	if _, ok := r.entries[e.id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, e.id)
	}
	r.entries[e.id] = e
	r.order = append(r.order, e.id)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(e Entry) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Unregister removes the entry with the given id. Only allowed before Freeze.
func (r *Registry) Unregister(id string) error {
	if r.frozen.Load() {
		return fmt.Errorf("%w: unregister %q", ErrFrozen, id)
	}
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(r.entries, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

// Freeze ends the registration phase. Further Register/Unregister calls fail with ErrFrozen.
func (r *Registry) Freeze() { r.frozen.Store(true) }

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// Len returns the number of registered entries.
func (r *Registry) Len() int { return len(r.order) }

// Get returns the entry with exactly this id (no case folding).
func (r *Registry) Get(id string) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e, nil
}

// List returns id, description and arguments of all entries in registration order.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Info())
	}
	return out
}

// Invoke resolves id and calls the entry generator. Errors from the generator are returned unchanged.
// Cancellation of ctx is left to generators that block.
func (r *Registry) Invoke(ctx context.Context, id string, args Args) (*Payload, error) {
	e, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return e.Generate(ctx, args)
}
