package pipeline

import "github.com/dagflow/dagflow/internal/task"

// chain composes middleware around base in declaration order: the first
// middleware in the slice is outermost, matching the order tasks declare
// WithMiddleware and the order a Runtime accumulates Use calls.
func chain(base task.Invoker, def *task.Definition, args []any, mws []task.Middleware) task.Invoker {
	inv := base
	for i := len(mws) - 1; i >= 0; i-- {
		inv = mws[i](inv, def, args)
	}
	return inv
}
