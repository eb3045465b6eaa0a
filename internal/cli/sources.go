package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/figma"
	"github.com/skosovsky/promptreg/fileregistry"
	"github.com/skosovsky/promptreg/internal/config"
	"github.com/skosovsky/promptreg/remoteregistry"
	"github.com/skosovsky/promptreg/remoteregistry/git"
)

// buildRegistry registers the built-in prompts, then every configured manifest source, and freezes
// the registry. The returned cleanup releases remote fetchers and must be called once serving ends.
func buildRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*promptreg.Registry, func(), error) {
	r := promptreg.New()
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn().Err(err).Msg("close prompt source")
			}
		}
	}
	fail := func(err error) (*promptreg.Registry, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	if err := figma.Register(r); err != nil {
		return fail(err)
	}
	logger.Debug().Int("count", r.Len()).Msg("registered built-in prompts")

	if cfg.Manifests.Dir != "" {
		before := r.Len()
		if _, err := fileregistry.Register(r, cfg.Manifests.Dir); err != nil {
			return fail(err)
		}
		logger.Info().Str("dir", cfg.Manifests.Dir).Int("count", r.Len()-before).Msg("registered local manifests")
	}

	if cfg.Remote.URL != "" {
		var opts []remoteregistry.HTTPOption
		if cfg.Remote.Token != "" {
			opts = append(opts, remoteregistry.WithAuthToken(cfg.Remote.Token))
		}
		f, err := remoteregistry.NewHTTPFetcher(cfg.Remote.URL, opts...)
		if err != nil {
			return fail(err)
		}
		src := remoteregistry.New(f, remoteregistry.WithTTL(cfg.Remote.TTL))
		closers = append(closers, src.Close)
		before := r.Len()
		// No ids means every id in {remote.url}/index.yaml.
		if err := src.Register(ctx, r, cfg.Remote.IDs...); err != nil {
			return fail(err)
		}
		logger.Info().Str("url", cfg.Remote.URL).Int("count", r.Len()-before).Msg("registered remote manifests")
	}

	if cfg.Git.URL != "" {
		opts := []git.Option{git.WithBranch(cfg.Git.Branch), git.WithLogger(logger)}
		if cfg.Git.Dir != "" {
			opts = append(opts, git.WithDir(cfg.Git.Dir))
		}
		if cfg.Git.Token != "" {
			opts = append(opts, git.WithAuth(cfg.Git.Token))
		}
		f, err := git.NewFetcher(cfg.Git.URL, opts...)
		if err != nil {
			return fail(err)
		}
		src := remoteregistry.New(f, remoteregistry.WithTTL(cfg.Remote.TTL))
		closers = append(closers, src.Close)
		before := r.Len()
		if err := src.Register(ctx, r, cfg.Git.IDs...); err != nil {
			return fail(err)
		}
		logger.Info().Str("url", cfg.Git.URL).Int("count", r.Len()-before).Msg("registered git manifests")
	}

	r.Freeze()
	return r, cleanup, nil
}

