package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/adapter"
	"github.com/skosovsky/promptreg/adapter/anthropic"
	"github.com/skosovsky/promptreg/adapter/gemini"
	"github.com/skosovsky/promptreg/adapter/ollama"
	"github.com/skosovsky/promptreg/adapter/openai"
)

var errUnknownProvider = errors.New("unknown provider")

// providers lists the adapters accepted by --provider.
var providers = map[string]func() adapter.ProviderAdapter{
	"anthropic": func() adapter.ProviderAdapter { return anthropic.New() },
	"openai":    func() adapter.ProviderAdapter { return openai.New() },
	"gemini":    func() adapter.ProviderAdapter { return gemini.New() },
	"ollama":    func() adapter.ProviderAdapter { return ollama.New() },
}

func newGetCmd(root *rootOptions) *cobra.Command {
	var (
		rawArgs  []string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Invoke a prompt and print its messages as JSON",
		Long:  "Invoke a prompt with --arg name=value pairs. With --provider the payload is printed as that provider's request body instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptArgs, err := parseArgs(rawArgs)
			if err != nil {
				return err
			}
			var translate adapter.ProviderAdapter
			if provider != "" {
				mk, ok := providers[provider]
				if !ok {
					return fmt.Errorf("%w: %q (want anthropic, openai, gemini or ollama)", errUnknownProvider, provider)
				}
				translate = mk()
			}

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

			payload, err := reg.Invoke(ctx, args[0], promptArgs)
			if err != nil {
				return err
			}
			var out any = toPayloadView(payload)
			if translate != nil {
				if out, err = translate.Translate(ctx, payload); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "prompt argument as name=value (repeatable)")
	cmd.Flags().StringVar(&provider, "provider", "", "print the request for a provider: anthropic, openai, gemini or ollama")
	return cmd
}

// parseArgs turns name=value pairs into Args. A later pair overrides an earlier one.
func parseArgs(pairs []string) (promptreg.Args, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(promptreg.Args, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: --arg %q: want name=value", promptreg.ErrInvalidArgument, p)
		}
		out[name] = value
	}
	return out, nil
}
