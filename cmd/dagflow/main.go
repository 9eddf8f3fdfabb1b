// Command dagflow is the CLI front end for flows declared with the
// github.com/dagflow/dagflow package: running them, describing their graph
// shape, and listing what is registered.
package main

import (
	"context"
	"os"

	"github.com/dagflow/dagflow/cmd/dagflow/internal"
	"github.com/dagflow/dagflow/internal/pipeline"
)

func main() {
	// Process-mode tasks re-exec this same binary as
	// "<exe> --dagflow-worker <task-name>"; intercept that before any cobra
	// command parsing happens.
	if len(os.Args) >= 3 && os.Args[1] == pipeline.WorkerFlag {
		if err := pipeline.RunWorker(context.Background(), os.Args[2], os.Stdin, os.Stdout); err != nil {
			os.Exit(1)
		}
		return
	}
	internal.Execute()
}
