package task

// Placeholder is the build-time handle returned by a task invocation inside
// a flow body. It carries no value; it stands in for the task's eventual
// result and is read-only once constructed.
type Placeholder struct {
	NodeID string
	Def    *Definition
}

// FanOutHandle is the build-time handle returned by a dynamic fan-out. It
// has no value of its own; downstream consumers receive the ordered list of
// child results once the barrier resolves.
type FanOutHandle struct {
	ID         string
	ChildTask  *Definition
	SourceNode string
}

// AsArg turns the handle into a FanOutRef argument referencing the whole
// ordered child-result list.
func (h *FanOutHandle) AsArg() Arg {
	return FanOutRef{FanOutID: h.ID}
}

// Index returns a FanOutRef argument bound to a single child's result.
func (h *FanOutHandle) Index(i int) Arg {
	idx := i
	return FanOutRef{FanOutID: h.ID, Index: &idx}
}
