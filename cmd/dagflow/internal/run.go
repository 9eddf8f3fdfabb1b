package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dagflow/dagflow"
	"github.com/dagflow/dagflow/internal/config"
	"github.com/dagflow/dagflow/internal/registry"
)

func NewRunCmd() *cobra.Command {
	var failurePolicy string
	var maxConcurrency int
	var params []string

	cmd := &cobra.Command{
		Use:   "run <flow-name>",
		Short: "Run a registered flow to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := lookupFlow(args[0])
			if err != nil {
				return exitError{code: 2, err: err}
			}

			policy, err := parseFailurePolicy(failurePolicy)
			if err != nil {
				return exitError{code: 2, err: err}
			}

			paramMap, err := parseParams(params)
			if err != nil {
				return exitError{code: 2, err: err}
			}

			if maxConcurrency <= 0 {
				maxConcurrency = config.Active().ProcessPoolMaxWorkers
			}

			res, err := flow.Run(cmd.Context(),
				dagflow.WithRunFailurePolicy(policy),
				dagflow.WithRunMaxConcurrency(maxConcurrency),
				dagflow.WithRunParams(paramMap),
			)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "flow %q failed: %v\n", args[0], err)
				if res != nil {
					for _, id := range res.Failed {
						fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %s\n", id)
					}
				}
				return exitError{code: 1, err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "flow %q completed (run %s)\n", args[0], res.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&failurePolicy, "failure-policy", "fail_fast", "One of fail_fast, continue, aggregate.")
	cmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "Maximum number of nodes dispatched at once (0 uses the configured default).")
	cmd.Flags().StringArrayVar(&params, "params", nil, "Run parameter as key=value; repeatable.")

	return cmd
}

func lookupFlow(name string) (*dagflow.Flow, error) {
	factory, ok := registry.LookupFlow(name)
	if !ok {
		return nil, fmt.Errorf("no flow registered under name %q", name)
	}
	flow, ok := factory.(*dagflow.Flow)
	if !ok {
		return nil, fmt.Errorf("flow %q was not registered as a *dagflow.Flow", name)
	}
	return flow, nil
}

func parseFailurePolicy(s string) (dagflow.FailurePolicy, error) {
	switch s {
	case "fail_fast", "":
		return dagflow.FailFast, nil
	case "continue":
		return dagflow.Continue, nil
	case "aggregate":
		return dagflow.Aggregate, nil
	default:
		return dagflow.FailFast, fmt.Errorf("unknown --failure-policy %q", s)
	}
}

func parseParams(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --params entry %q, expected key=value", kv)
		}
		out[name] = value
	}
	return out, nil
}

// exitError carries a process exit code alongside the underlying error,
// consulted by Execute.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func exitCodeOf(err error) int {
	if ee, ok := err.(exitError); ok {
		return ee.code
	}
	return 1
}
