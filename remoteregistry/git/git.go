package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog"

	"github.com/skosovsky/promptreg/manifest"
	"github.com/skosovsky/promptreg/remoteregistry"
)

var (
	_ remoteregistry.Fetcher = (*Fetcher)(nil)
	_ remoteregistry.Lister  = (*Fetcher)(nil)
)

// Fetcher fetches YAML manifests from a Git repository (clone on first use, then pull).
// Call Close to remove a temporary clone.
type Fetcher struct {
	repoURL   string
	branch    string
	dir       string
	depth     int
	authToken string
	cloneDir  string
	log       zerolog.Logger
	localDir  string
	mu        sync.Mutex
	repo      *git.Repository
}

// NewFetcher creates a Fetcher. Repo is cloned on first Fetch or ListIDs.
// Returns error if repoURL or the branch is empty.
func NewFetcher(repoURL string, opts ...Option) (*Fetcher, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, fmt.Errorf("remoteregistry/git: repo URL must not be empty")
	}
	g := &Fetcher{
		repoURL: repoURL,
		branch:  "main",
		depth:   1,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if strings.TrimSpace(g.branch) == "" {
		return nil, fmt.Errorf("remoteregistry/git: branch must not be empty")
	}
	return g, nil
}

// Fetch reads the manifest from the repo: {dir}/{id}.yaml or {dir}/{id}.yml.
func (g *Fetcher) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := remoteregistry.ValidateID(id); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ensureClone(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	baseDir := g.baseDir()
	for _, rel := range remoteregistry.CandidatePaths(id) {
		cleanPath := filepath.Clean(filepath.Join(baseDir, rel))
		relPath, relErr := filepath.Rel(baseDir, cleanPath)
		if relErr != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
			continue
		}
		data, err := os.ReadFile(cleanPath) // #nosec G304 -- cleanPath is validated via filepath.Rel to prevent path traversal
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%w: read %s: %w", remoteregistry.ErrFetchFailed, cleanPath, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", remoteregistry.ErrNotFound, id)
}

// ListIDs returns the ids of all manifests directly under the configured directory, sorted.
// Ids come from file names; names that are not valid prompt ids are skipped.
func (g *Fetcher) ListIDs(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ensureClone(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	entries, err := os.ReadDir(g.baseDir())
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", remoteregistry.ErrFetchFailed, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !manifest.IsManifestName(name) {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if remoteregistry.ValidateID(id) != nil {
			g.log.Debug().Str("file", name).Msg("skipping manifest with invalid id")
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (g *Fetcher) baseDir() string {
	return filepath.Clean(filepath.Join(g.localDir, g.dir))
}

func (g *Fetcher) auth() *http.BasicAuth {
	if g.authToken == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: g.authToken}
}

func (g *Fetcher) ensureClone(ctx context.Context) error {
	if g.repo != nil {
		g.pull(ctx)
		return nil
	}
	if g.cloneDir != "" {
		if repo, err := git.PlainOpen(g.cloneDir); err == nil {
			g.repo = repo
			g.localDir = g.cloneDir
			g.pull(ctx)
			return nil
		}
	}
	dir := g.cloneDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "promptreg-git-*")
		if err != nil {
			return fmt.Errorf("temp dir: %w", err)
		}
		dir = tmp
	}
	cloneOpts := &git.CloneOptions{
		URL:           g.repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(g.branch),
		SingleBranch:  true,
	}
	if g.depth > 0 {
		cloneOpts.Depth = g.depth
	}
	if a := g.auth(); a != nil {
		cloneOpts.Auth = a
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
	if err != nil {
		if g.cloneDir == "" {
			_ = os.RemoveAll(dir)
		}
		return fmt.Errorf("clone: %w", err)
	}
	g.log.Debug().Str("url", g.repoURL).Str("branch", g.branch).Str("dir", dir).Msg("cloned prompt repository")
	g.localDir = dir
	g.repo = repo
	return nil
}

// pull refreshes the working tree. Failures keep the existing clone; the next call retries.
func (g *Fetcher) pull(ctx context.Context) {
	// file:// clones have nothing to pull from.
	if strings.HasPrefix(g.repoURL, "file://") {
		return
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		g.log.Warn().Err(err).Msg("git worktree unavailable, using cached clone")
		return
	}
	pullOpts := &git.PullOptions{ReferenceName: plumbing.NewBranchReferenceName(g.branch), SingleBranch: true}
	if a := g.auth(); a != nil {
		pullOpts.Auth = a
	}
	err = wt.PullContext(ctx, pullOpts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		g.log.Warn().Err(err).Str("url", g.repoURL).Msg("git pull failed, using cached clone")
	}
}

// Close removes the local clone directory unless it was set with WithCloneDir. Safe to call multiple times.
func (g *Fetcher) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.localDir == "" {
		return nil
	}
	dir := g.localDir
	g.localDir = ""
	g.repo = nil
	if dir == g.cloneDir {
		return nil
	}
	return os.RemoveAll(dir)
}
