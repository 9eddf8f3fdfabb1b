package observability

// Span is a scoped-acquisition tracing handle: End closes the span.
type Span interface {
	End()
	SetAttribute(key string, value any)
}

// Tracer is the swappable tracer consumed by internal/scheduler (wraps
// every flow) and internal/pipeline (wraps every task dispatch).
type Tracer interface {
	Start(name string, attrs map[string]any) Span
}

// NoopTracer discards every span; it is the default until SetTracer is
// called.
type NoopTracer struct{}

func (NoopTracer) Start(name string, attrs map[string]any) Span { return noopSpan{} }

type noopSpan struct{}

func (noopSpan) End()                       {}
func (noopSpan) SetAttribute(string, any) {}
