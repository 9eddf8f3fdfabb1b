package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dagflow/dagflow/internal/registry"
)

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the flows registered by the running program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := registry.FlowNames()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no flows registered")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
