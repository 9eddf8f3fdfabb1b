package pipeline

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"os/exec"

	flowerrors "github.com/dagflow/dagflow/internal/errors"
	"github.com/dagflow/dagflow/internal/registry"
	"github.com/dagflow/dagflow/internal/task"
)

// WorkerFlag is the argv[1] value a process-mode subprocess is re-exec'd
// with, followed by the task name in argv[2]. cmd/dagflow checks for it
// before parsing any cobra subcommand. Using an argument rather than an
// environment variable keeps this package from needing to read or rebuild
// the process environment itself.
const WorkerFlag = "--dagflow-worker"

// workRequest/workResponse are the gob-encoded frames exchanged over the
// subprocess's stdin/stdout, standing in for the source runtime's pickled
// argument/result tuples (see DESIGN.md for why gob plays that role here).
type workRequest struct {
	Args []any
}

type workResponse struct {
	Value   any
	ErrText string
}

// execProcess runs def's body in a freshly spawned copy of the current
// executable, re-entering it with WorkerFlag set so RunWorker below
// dispatches straight to the task instead of the normal CLI.
func execProcess(ctx context.Context, def *task.Definition, args []any) (any, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, flowerrors.NewTaskExecutionError(def.Name, "", fmt.Errorf("resolve executable: %w", err))
	}

	var stdin bytes.Buffer
	if err := gob.NewEncoder(&stdin).Encode(workRequest{Args: args}); err != nil {
		return nil, flowerrors.NewTaskExecutionError(def.Name, "", fmt.Errorf("encode arguments: %w", err))
	}

	cmd := exec.CommandContext(ctx, exe, WorkerFlag, def.Name)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, flowerrors.NewTaskExecutionError(def.Name, "", fmt.Errorf("process execution failed: %w (stderr: %s)", err, stderr.String()))
	}

	var resp workResponse
	if err := gob.NewDecoder(&stdout).Decode(&resp); err != nil {
		return nil, flowerrors.NewTaskExecutionError(def.Name, "", fmt.Errorf("decode result: %w", err))
	}
	if resp.ErrText != "" {
		return nil, flowerrors.NewTaskExecutionError(def.Name, "", fmt.Errorf("%s", resp.ErrText))
	}
	return resp.Value, nil
}

// RunWorker is the subprocess-side entry point: it reads a gob-encoded
// workRequest from stdin, looks up the named task in the process-wide
// registry, calls it, and writes a gob-encoded workResponse to stdout.
// cmd/dagflow's main calls this and exits immediately when WorkerFlag is
// the first argument, before any cobra command parsing happens.
func RunWorker(ctx context.Context, taskName string, stdin *os.File, stdout *os.File) error {
	def, ok := registry.LookupTask(taskName)
	if !ok {
		return fmt.Errorf("process worker: unknown task %q", taskName)
	}

	var req workRequest
	if err := gob.NewDecoder(stdin).Decode(&req); err != nil {
		return fmt.Errorf("process worker: decode request: %w", err)
	}

	value, err := def.Call(ctx, req.Args)
	resp := workResponse{Value: value}
	if err != nil {
		resp.ErrText = err.Error()
	}
	return gob.NewEncoder(stdout).Encode(resp)
}
