// Package errors defines the structured error taxonomy shared by every
// dagflow component. Every exported error type wraps its cause (if any) and
// supports errors.As/errors.Is via Unwrap.
package errors

import "fmt"

// FlowError is the base shape shared by all dagflow error types: a stable
// code, a human message, and an optional wrapped cause.
type FlowError struct {
	Code    string
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func New(code, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

func Wrap(err error, code, message string) *FlowError {
	return &FlowError{Code: code, Message: message, Err: err}
}

// FlowBuildError indicates DAG construction failed: a cycle, a dangling
// dependency reference, or a malformed fan-out.
type FlowBuildError struct{ *FlowError }

func NewFlowBuildError(message string) *FlowBuildError {
	return &FlowBuildError{New("FLOW_BUILD", message)}
}

func WrapFlowBuildError(err error, message string) *FlowBuildError {
	return &FlowBuildError{Wrap(err, "FLOW_BUILD", message)}
}

// TaskExecutionError wraps a task body panic/error or an invalid return
// value, naming the task and node_id it occurred in.
type TaskExecutionError struct {
	*FlowError
	TaskName string
	NodeID   string
}

func NewTaskExecutionError(taskName, nodeID string, cause error) *TaskExecutionError {
	return &TaskExecutionError{
		FlowError: Wrap(cause, "TASK_EXECUTION", fmt.Sprintf("task %q (node %s) failed", taskName, nodeID)),
		TaskName:  taskName,
		NodeID:    nodeID,
	}
}

// TimeoutError indicates a task exceeded its configured timeout. It is
// retryable if attempts remain.
type TimeoutError struct {
	*FlowError
	TaskName string
	NodeID   string
}

func NewTimeoutError(taskName, nodeID string) *TimeoutError {
	return &TimeoutError{
		FlowError: New("TASK_TIMEOUT", fmt.Sprintf("task %q (node %s) timed out", taskName, nodeID)),
		TaskName:  taskName,
		NodeID:    nodeID,
	}
}

// RetryExhaustedError wraps the last failure after all retry attempts were
// consumed.
type RetryExhaustedError struct {
	*FlowError
	TaskName string
	NodeID   string
	Attempts int
}

func NewRetryExhaustedError(taskName, nodeID string, attempts int, cause error) *RetryExhaustedError {
	return &RetryExhaustedError{
		FlowError: Wrap(cause, "RETRY_EXHAUSTED", fmt.Sprintf("task %q (node %s) exhausted %d attempt(s)", taskName, nodeID, attempts)),
		TaskName:  taskName,
		NodeID:    nodeID,
		Attempts:  attempts,
	}
}

// AggregateTaskError collects the terminal failures of a continue/aggregate
// run, preserving declaration order.
type AggregateTaskError struct {
	*FlowError
	Failures []error
}

func NewAggregateTaskError(failures []error) *AggregateTaskError {
	return &AggregateTaskError{
		FlowError: New("AGGREGATE_FAILURE", fmt.Sprintf("%d task(s) failed", len(failures))),
		Failures:  failures,
	}
}

// DynamicExpansionError indicates a fan-out source was not iterable, or
// expansion exceeded the max_dynamic_tasks guardrail.
type DynamicExpansionError struct {
	*FlowError
	FanOutID string
}

func NewDynamicExpansionError(fanOutID, message string) *DynamicExpansionError {
	return &DynamicExpansionError{
		FlowError: New("DYNAMIC_EXPANSION", fmt.Sprintf("fan-out %s: %s", fanOutID, message)),
		FanOutID:  fanOutID,
	}
}

// CacheError indicates a result-cache backend fault. Never retried
// automatically.
type CacheError struct{ *FlowError }

func NewCacheError(message string, cause error) *CacheError {
	return &CacheError{Wrap(cause, "CACHE_ERROR", message)}
}

// ArtifactError indicates an artifact-store backend fault. Never retried
// automatically.
type ArtifactError struct{ *FlowError }

func NewArtifactError(message string, cause error) *ArtifactError {
	return &ArtifactError{Wrap(cause, "ARTIFACT_ERROR", message)}
}
