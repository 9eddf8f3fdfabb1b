package pipeline

import (
	"context"
	"sync"
	"time"

	flowerrors "github.com/dagflow/dagflow/internal/errors"
	"github.com/dagflow/dagflow/internal/task"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// CircuitBreaker is an optional per-task middleware implementing a
// standard threshold/cooldown circuit breaker (closed/open/half-open) for
// the in-process dispatch path. It is not wired by default; declare it via
// task.WithMiddleware(pipeline.NewCircuitBreaker(...).Middleware()) for
// tasks that call an unreliable external dependency.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	resetTimeout     time.Duration

	state        breakerState
	failureCount int
	openedAt     time.Time
}

// NewCircuitBreaker trips open after failureThreshold consecutive failures
// and stays open for resetTimeout before allowing one trial call through.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// Middleware adapts the breaker into a task.Middleware.
func (cb *CircuitBreaker) Middleware() task.Middleware {
	return func(next task.Invoker, def *task.Definition, args []any) task.Invoker {
		return func(ctx context.Context, args []any) (any, error) {
			if !cb.allow() {
				return nil, flowerrors.NewTaskExecutionError(def.Name, "", errBreakerOpen)
			}
			out, err := next(ctx, args)
			cb.record(err == nil)
			return out, err
		}
	}
}

var errBreakerOpen = circuitOpenError{}

type circuitOpenError struct{}

func (circuitOpenError) Error() string { return "circuit breaker open" }

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(cb.openedAt) >= cb.resetTimeout {
			cb.state = breakerHalfOpen
			return true
		}
		return false
	case breakerHalfOpen:
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if success {
		cb.state = breakerClosed
		cb.failureCount = 0
		return
	}
	cb.failureCount++
	if cb.state == breakerHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.state = breakerOpen
		cb.openedAt = time.Now()
	}
}
