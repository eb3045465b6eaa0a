package remoteregistry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/manifest"

	"golang.org/x/sync/singleflight"
)

const defaultTTL = 5 * time.Minute

// detachCancel returns a context that is not cancelled when parent is cancelled,
// but still respects parent's deadline so fetches (e.g. git clone) do not hang.
// The caller should call the returned cancel when done to release the deadline timer.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}

type cacheEntry struct {
	entry     promptreg.Entry
	expiresAt time.Time
}

// Source loads manifests via a Fetcher and caches the parsed entries with TTL.
// Safe for concurrent use.
type Source struct {
	fetcher Fetcher
	ttl     time.Duration
	mu      sync.RWMutex
	cache   map[string]*cacheEntry
	sf      singleflight.Group
}

// New creates a Source that uses the given Fetcher. Options (e.g. WithTTL) configure cache behavior.
// Panics if fetcher is nil.
func New(fetcher Fetcher, opts ...Option) *Source {
	if fetcher == nil {
		panic("remoteregistry: Fetcher must not be nil")
	}
	s := &Source{
		fetcher: fetcher,
		ttl:     defaultTTL,
		cache:   make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) cacheEntryValid(ent *cacheEntry, now time.Time) bool {
	return s.ttl <= 0 || now.Before(ent.expiresAt)
}

// Load returns the parsed manifest for id. Uses the TTL cache; on miss or expiry, fetches via Fetcher.
// A missing manifest is reported as promptreg.ErrNotFound.
func (s *Source) Load(ctx context.Context, id string) (promptreg.Entry, error) {
	if err := ValidateID(id); err != nil {
		return promptreg.Entry{}, err
	}
	s.mu.RLock()
	ent, ok := s.cache[id]
	if ok && s.cacheEntryValid(ent, time.Now()) {
		e := ent.entry
		s.mu.RUnlock()
		return e, nil
	}
	s.mu.RUnlock()
	if ctx.Err() != nil {
		return promptreg.Entry{}, ctx.Err()
	}

	v, err, _ := s.sf.Do(id, func() (any, error) {
		fetchCtx, cancel := detachCancel(ctx)
		defer cancel()
		data, err := s.fetcher.Fetch(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		e, err := manifest.ParseBytes(data)
		if err != nil {
			return nil, err
		}
		if e.ID() != id {
			return nil, fmt.Errorf("%w: fetched %q, manifest declares %q", ErrIDMismatch, id, e.ID())
		}
		s.mu.Lock()
		expiresAt := time.Time{}
		if s.ttl > 0 {
			expiresAt = time.Now().Add(s.ttl)
		}
		s.cache[id] = &cacheEntry{entry: e, expiresAt: expiresAt}
		s.mu.Unlock()
		return e, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return promptreg.Entry{}, fmt.Errorf("%w: %q: %w", promptreg.ErrNotFound, id, err)
		}
		return promptreg.Entry{}, err
	}
	return v.(promptreg.Entry), nil
}

// Register fetches each id once and registers an entry whose generator re-reads
// the manifest through the cache. Id and description are fixed at registration.
// With no ids, the Fetcher must implement Lister.
func (s *Source) Register(ctx context.Context, r *promptreg.Registry, ids ...string) error {
	if len(ids) == 0 {
		lister, ok := s.fetcher.(Lister)
		if !ok {
			return ErrNoIDs
		}
		listed, err := lister.ListIDs(ctx)
		if err != nil {
			return err
		}
		ids = listed
	}
	for _, id := range ids {
		loaded, err := s.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("remoteregistry: load %q: %w", id, err)
		}
		declared := loaded.Arguments()
		e, err := promptreg.NewEntry(id, loaded.Description(), s.generator(id, declared),
			promptreg.WithArguments(declared...))
		if err != nil {
			return err
		}
		if err := r.Register(e); err != nil {
			return fmt.Errorf("remoteregistry: %w", err)
		}
	}
	return nil
}

// generator resolves id through the cache on every call. A manifest that
// disappeared upstream is a fetch failure here, not an unknown prompt. Args were
// validated against declared by the registry, so a refreshed manifest must declare
// the same arguments.
func (s *Source) generator(id string, declared []promptreg.Argument) promptreg.Generator {
	return func(ctx context.Context, args promptreg.Args) ([]promptreg.Message, error) {
		e, err := s.Load(ctx, id)
		if err != nil {
			if errors.Is(err, promptreg.ErrNotFound) {
				return nil, fmt.Errorf("%w: %q removed upstream: %v", ErrFetchFailed, id, err)
			}
			return nil, err
		}
		if !sameArguments(declared, e.Arguments()) {
			return nil, fmt.Errorf("%w: %q", ErrArgumentsChanged, id)
		}
		p, err := e.Generate(ctx, args)
		if err != nil {
			return nil, err
		}
		return p.Messages, nil
	}
}

// sameArguments compares names and required flags in order. Descriptions may drift.
func sameArguments(a, b []promptreg.Argument) bool {
	return slices.EqualFunc(a, b, func(x, y promptreg.Argument) bool {
		return x.Name == y.Name && x.Required == y.Required
	})
}

// Evict removes one manifest from the cache by id. Safe for concurrent use.
func (s *Source) Evict(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

// EvictAll clears the entire cache. Safe for concurrent use.
func (s *Source) EvictAll() {
	s.mu.Lock()
	s.cache = make(map[string]*cacheEntry)
	s.mu.Unlock()
}

// Close calls Close on the underlying Fetcher if it implements the interface.
// Use this to clean up resources (e.g. git.Fetcher removes the local clone).
func (s *Source) Close() error {
	if c, ok := s.fetcher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
