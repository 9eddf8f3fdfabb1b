// Package observability is the event bus, swappable metrics provider, and
// swappable tracer consumed from internal/scheduler and internal/pipeline.
package observability

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Known event names.
const (
	EventFlowStarted   = "flow_started"
	EventFlowCompleted = "flow_completed"
	EventTaskStarted   = "task_started"
	EventTaskRetry     = "task_retry"
	EventTaskFailed    = "task_failed"
	EventTaskSucceeded = "task_succeeded"
)

// Handler receives an event's payload. Handler errors never surface to the
// caller of Emit; a handler that panics or returns is only ever observed by
// the isolated invocation guard in EventBus.Emit.
type Handler func(payload map[string]any)

// Logger receives a single diagnostic line when a handler fails; handler
// failures are swallowed rather than propagated to Emit's caller.
type Logger func(line string)

type subscription struct {
	handler Handler
	filter  cel.Program // nil means unconditional
}

// EventBus is a process-wide (or per-Runtime, see internal/runtime)
// subscribe/emit bus. Subscriptions may carry a CEL filter expression
// evaluated against the event's payload, compiled and cached exactly as
// subscription filters are in this stack's CEL-based event matching.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription
	celEnv        *cel.Env
	programCache  sync.Map
	logger        Logger
}

// NewEventBus creates an empty bus. logger may be nil to discard diagnostics.
func NewEventBus(logger Logger) *EventBus {
	env, err := cel.NewEnv(
		cel.Variable("event_type", cel.StringType),
		cel.Variable("payload", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("task", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		// The environment is built from a fixed, known-good variable set;
		// a failure here indicates a cel-go version incompatibility that
		// should fail loudly at startup rather than be swallowed.
		panic(fmt.Sprintf("observability: failed to build CEL environment: %v", err))
	}
	if logger == nil {
		logger = func(string) {}
	}
	return &EventBus{
		subscriptions: make(map[string][]subscription),
		celEnv:        env,
		logger:        logger,
	}
}

// Subscribe registers handler for eventName, invoked unconditionally.
func (b *EventBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[eventName] = append(b.subscriptions[eventName], subscription{handler: handler})
}

// SubscribeFiltered registers handler for eventName, invoked only when
// filterExpr evaluates to true against the event's payload (plus
// event_type and task metadata). An invalid expression is rejected at
// subscribe time.
func (b *EventBus) SubscribeFiltered(eventName, filterExpr string, handler Handler) error {
	program, err := b.compile(filterExpr)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[eventName] = append(b.subscriptions[eventName], subscription{handler: handler, filter: program})
	return nil
}

func (b *EventBus) compile(expr string) (cel.Program, error) {
	if cached, ok := b.programCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	ast, issues := b.celEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("observability: CEL compilation error: %w", issues.Err())
	}
	program, err := b.celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("observability: CEL program creation error: %w", err)
	}
	b.programCache.Store(expr, program)
	return program, nil
}

// Emit fires eventName to every matching subscriber. Handler panics/errors
// are recorded via logger and never propagate.
func (b *EventBus) Emit(eventName string, payload map[string]any) {
	b.mu.RLock()
	subs := append([]subscription{}, b.subscriptions[eventName]...)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil && !b.matches(s.filter, eventName, payload) {
			continue
		}
		b.invoke(eventName, s.handler, payload)
	}
}

func (b *EventBus) matches(program cel.Program, eventName string, payload map[string]any) bool {
	taskMeta, _ := payload["task"].(map[string]any)
	out, _, err := program.Eval(map[string]any{
		"event_type": eventName,
		"payload":    payload,
		"task":       taskMeta,
	})
	if err != nil {
		b.logger(fmt.Sprintf("observability: filter evaluation failed for %s: %v", eventName, err))
		return false
	}
	if out.Type() != types.BoolType {
		b.logger(fmt.Sprintf("observability: filter for %s did not return bool", eventName))
		return false
	}
	return out.Value().(bool)
}

func (b *EventBus) invoke(eventName string, h Handler, payload map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger(fmt.Sprintf("observability: handler for %s panicked: %v", eventName, r))
		}
	}()
	h(payload)
}
