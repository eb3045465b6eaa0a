package cli

import (
	"encoding/json"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, root)
			if err != nil {
				return err
			}
			reg, cleanup, err := buildRegistry(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			infos := reg.List()
			out := cmd.OutOrStdout()
			if asJSON {
				views := make([]infoView, 0, len(infos))
				for _, info := range infos {
					views = append(views, toInfoView(info))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			printf(tw, "ID\tARGUMENTS\tDESCRIPTION\n")
			for _, info := range infos {
				printf(tw, "%s\t%d\t%s\n", info.ID, len(info.Arguments), firstLine(info.Description))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}
