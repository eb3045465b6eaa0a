package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/ext/otelpromptreg"
	"github.com/skosovsky/promptreg/internal/config"
	"github.com/skosovsky/promptreg/internal/tracing"
	"github.com/skosovsky/promptreg/mcp"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry to MCP clients",
		Long:  "Serve the registry as an MCP server on stdin/stdout (default) or over Streamable HTTP. --trace logs OpenTelemetry spans.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, root)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			reg, cleanup, err := buildRegistry(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			var src promptreg.Source = reg
			var tp *sdktrace.TracerProvider
			if cfg.Tracing.Enabled {
				tp = tracing.NewProvider(logger)
				defer func() {
					if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
						logger.Warn().Err(err).Msg("tracer provider shutdown")
					}
				}()
				src = otelpromptreg.Wrap(reg, otelpromptreg.WithTracerProvider(tp))
			}
			srv := mcp.NewServer(src, logger, mcp.WithVersion(Version))
			logger.Info().Int("prompts", reg.Len()).Str("transport", cfg.Transport).Bool("tracing", tp != nil).Msg("serving prompt registry")

			if cfg.Transport == config.TransportHTTP {
				var handler http.Handler = srv
				if tp != nil {
					handler = otelhttp.NewHandler(srv, "promptreg.mcp", otelhttp.WithTracerProvider(tp))
				}
				return serveHTTP(ctx, handler, cfg.HTTP.Addr)
			}
			err = srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("transport", "", "transport: stdio or http")
	cmd.Flags().String("addr", "", "listen address for the http transport")
	return cmd
}

func serveHTTP(ctx context.Context, handler http.Handler, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	hs := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.Serve(ln)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

