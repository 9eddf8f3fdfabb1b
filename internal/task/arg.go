package task

// Arg is the tagged-variant argument binding described in the design notes:
// a task's build-time arguments are either literal values, references to an
// upstream Placeholder, or references to a FanOut barrier (optionally
// indexed into one of the barrier's ordered children). Tags are resolved
// against completed node results immediately before dispatch; there is no
// duck-typed fallback.
type Arg interface {
	isArg()
}

// Literal is an argument bound to a concrete build-time value.
type Literal struct {
	Value any
}

func (Literal) isArg() {}

// Ref is an argument bound to the eventual result of another node.
type Ref struct {
	NodeID string
}

func (Ref) isArg() {}

// FanOutRef is an argument bound to the ordered result list of a FanOut
// barrier. When Index is non-nil the argument resolves to a single child's
// result rather than the whole list.
type FanOutRef struct {
	FanOutID string
	Index    *int
}

func (FanOutRef) isArg() {}

// L is shorthand for Literal{Value: v}.
func L(v any) Arg { return Literal{Value: v} }

// R is shorthand for Ref{NodeID: p.NodeID}.
func R(p *Placeholder) Arg { return Ref{NodeID: p.NodeID} }

// DependsOn returns the node/fan-out identifiers an Arg references, or two
// empty strings for a Literal.
func DependsOn(a Arg) (nodeID string, fanOutID string) {
	switch v := a.(type) {
	case Ref:
		return v.NodeID, ""
	case FanOutRef:
		return "", v.FanOutID
	default:
		return "", ""
	}
}
