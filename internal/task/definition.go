// Package task implements the TaskDefinition and Invocation/Placeholder
// components of the engine: immutable descriptors of callable work plus the
// build-time handles that stand in for their eventual results.
package task

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"

	flowerrors "github.com/dagflow/dagflow/internal/errors"
)

// RunMode selects where a dispatch's function body executes.
type RunMode int

const (
	// Async and Thread both execute the task body on a bounded goroutine;
	// Go has no cooperative-coroutine/OS-thread distinction to preserve
	// from the source runtime, so the two modes are deliberately
	// equivalent (see DESIGN.md, Open Question resolution).
	Async RunMode = iota
	Thread
	Process
)

func (m RunMode) String() string {
	switch m {
	case Async:
		return "async"
	case Thread:
		return "thread"
	case Process:
		return "process"
	default:
		return "unknown"
	}
}

// Invoker is the signature every layer of the middleware onion wraps:
// resolved arguments in, a single result or error out.
type Invoker func(ctx context.Context, args []any) (any, error)

// Middleware wraps an Invoker with additional behavior. It must call next
// exactly once to proceed with execution.
type Middleware func(next Invoker, def *Definition, args []any) Invoker

// CacheKeyFunc produces a stable cache key from a task name and its
// resolved arguments.
type CacheKeyFunc func(name string, args []any) string

// Definition is the immutable descriptor produced by declaring a task. It is
// safe for concurrent use and outlives any single flow run.
type Definition struct {
	Name string

	fn     reflect.Value
	fnType reflect.Type

	RunIn        RunMode
	Retries      int
	RetryBackoff float64 // seconds
	RetryJitter  float64 // seconds, additive uniform [0, jitter)
	Timeout      float64 // seconds, 0 means unset
	HasTimeout   bool
	CacheTTL     float64 // seconds, 0 means unset
	HasCache     bool
	CacheKeyFn   CacheKeyFunc
	Persist      bool
	Priority     int
	Tags         map[string]struct{}
	Middleware   []Middleware
}

// New declares a TaskDefinition from an arbitrary Go function. fn must have
// the shape func(context.Context, ...) (T, error) or
// func(context.Context, ...) error. It panics on a malformed signature,
// failing fast on a build-time declaration error rather than surfacing it
// later as a confusing runtime panic inside reflect.Value.Call.
func New(name string, fn any, opts ...Option) *Definition {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic(fmt.Sprintf("task %q: fn must be a function, got %s", name, t.Kind()))
	}
	if t.NumIn() < 1 || !t.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
		panic(fmt.Sprintf("task %q: fn's first parameter must be context.Context", name))
	}
	numOut := t.NumOut()
	if numOut < 1 || numOut > 2 {
		panic(fmt.Sprintf("task %q: fn must return (T, error) or (error)", name))
	}
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !t.Out(numOut - 1).Implements(errType) {
		panic(fmt.Sprintf("task %q: fn's last return value must be error", name))
	}

	d := &Definition{
		Name:   name,
		fn:     v,
		fnType: t,
		RunIn:  Thread,
		Tags:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.CacheKeyFn == nil {
		d.CacheKeyFn = DefaultCacheKey
	}
	return d
}

// NumArgs returns the number of non-context arguments fn expects.
func (d *Definition) NumArgs() int {
	return d.fnType.NumIn() - 1
}

// Call invokes the underlying function via reflection, substituting ctx as
// the first parameter. It is the single call path shared by every
// goroutine-mode dispatch and the process-mode worker.
func (d *Definition) Call(ctx context.Context, args []any) (any, error) {
	if len(args) != d.NumArgs() {
		return nil, flowerrors.NewTaskExecutionError(d.Name, "", fmt.Errorf("expected %d argument(s), got %d", d.NumArgs(), len(args)))
	}
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, reflect.ValueOf(ctx))
	for i, a := range args {
		want := d.fnType.In(i + 1)
		in = append(in, coerce(a, want))
	}

	out, callErr := safeCall(d.fn, in)
	if callErr != nil {
		return nil, flowerrors.NewTaskExecutionError(d.Name, "", callErr)
	}

	numOut := d.fnType.NumOut()
	errVal := out[numOut-1]
	var err error
	if !errVal.IsNil() {
		err = errVal.Interface().(error)
	}
	if numOut == 1 {
		return nil, err
	}
	return out[0].Interface(), err
}

func coerce(a any, want reflect.Type) reflect.Value {
	if a == nil {
		return reflect.Zero(want)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(want) {
		return v
	}
	if v.Type().ConvertibleTo(want) {
		return v.Convert(want)
	}
	return v
}

func safeCall(fn reflect.Value, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn.Call(in), nil
}

// HasTag reports whether the definition carries the given tag.
func (d *Definition) HasTag(tag string) bool {
	_, ok := d.Tags[tag]
	return ok
}

// DefaultCacheKey hashes (name, args) into a stable hex digest. It
// intentionally does not include any fingerprint of the task body's source
// (see DESIGN.md Open Question resolution): changing fn silently reuses
// stale cached results under the same name+args.
func DefaultCacheKey(name string, args []any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%#v", a))
	}
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
