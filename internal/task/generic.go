package task

import "context"

// Define is a typed convenience wrapper over New for the common
// single-argument case. Callers needing heterogeneous or variadic argument
// shapes use New directly.
func Define[In, Out any](name string, fn func(context.Context, In) (Out, error), opts ...Option) *Definition {
	return New(name, fn, opts...)
}

// Define0 declares a zero-argument task.
func Define0[Out any](name string, fn func(context.Context) (Out, error), opts ...Option) *Definition {
	return New(name, fn, opts...)
}

// Define2 declares a two-argument task.
func Define2[A, B, Out any](name string, fn func(context.Context, A, B) (Out, error), opts ...Option) *Definition {
	return New(name, fn, opts...)
}
