package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dagflow/dagflow/internal/config"
	"github.com/dagflow/dagflow/internal/secrets"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "dagflow",
		Short: "dagflow runs in-process task DAGs declared with the dagflow package.",
		Long: `dagflow is a command-line tool for running, inspecting, and listing flows
declared in your program with the dagflow package. It does not execute
arbitrary workflow files; it drives the Go code that registered flows by
importing the dagflow package and calling dagflow.Task/dagflow.NewFlow.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a dagflow.yaml configuration file.")
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewDescribeCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads configPath (if any) and applies DAGFLOW_* environment
// overrides, installing the result as the process-wide active Config. It
// also seeds the secrets provider from the process environment so tasks can
// call dagflow.GetSecret without reading os.Environ themselves.
func loadConfig(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.ApplyEnvOverrides(cfg, os.LookupEnv)
	config.SetActive(cfg)

	envSecrets := secrets.MapProvider{}
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			envSecrets[name] = value
		}
	}
	secrets.SetProvider(envSecrets)

	return nil
}

func Execute() {
	cmd := NewRootCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeOf(err))
	}
}
