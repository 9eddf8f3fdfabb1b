package internal

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewDescribeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <flow-name>",
		Short: "Print a flow's DAG without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := lookupFlow(args[0])
			if err != nil {
				return exitError{code: 2, err: err}
			}

			d, err := flow.Build()
			if err != nil {
				return exitError{code: 1, err: err}
			}

			switch format {
			case "dot":
				fmt.Fprint(cmd.OutOrStdout(), d.ExportDOT(args[0]))
			case "json", "":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(d.ExportJSON(args[0])); err != nil {
					return exitError{code: 1, err: err}
				}
			default:
				return exitError{code: 2, err: fmt.Errorf("unknown --format %q, want json or dot", format)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or dot.")
	return cmd
}
