package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProvidersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the stores a search would query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(cmd.Context(), root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTORE\tKIND\tLABEL")
			for _, info := range svc.Providers() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Store, info.Kind, info.Label)
			}
			return tw.Flush()
		},
	}
}
