// Package cli implements the promptreg command: serving the registry over MCP and
// inspecting it from a terminal.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/skosovsky/promptreg/internal/config"
	"github.com/skosovsky/promptreg/internal/logging"
)

// Version is reported in serverInfo and by --version. Set with -ldflags at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
}

// NewRootCmd returns the promptreg command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "promptreg",
		Short:         "Named prompt registry served over MCP",
		Long:          "promptreg registers named prompt templates (the built-in Figma design prompts plus optional local, HTTP and Git manifests) and serves them to MCP clients.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	pf.String("manifests", "", "directory of YAML prompt manifests to register")
	pf.String("remote-url", "", "base URL serving index.yaml and {id}.yaml manifests")
	pf.String("git-url", "", "Git repository holding prompt manifests")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console or json)")
	pf.Bool("trace", false, "log OpenTelemetry spans for prompt invocations and HTTP requests")

	cmd.AddCommand(newServeCmd(opts), newListCmd(opts), newGetCmd(opts))
	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads configuration from the command's flags and builds the stderr logger.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
