// Package runtime assembles the swappable resources every dispatch and
// every scheduled flow shares: the result cache, the single-flight group,
// the artifact store, the event bus, the metrics provider and the tracer.
// It bundles the resources a sandboxed execution environment would assemble
// for a run, generalized here into an in-process resource bundle rather
// than a container spec.
package runtime

import (
	"sync"

	"github.com/dagflow/dagflow/internal/artifact"
	"github.com/dagflow/dagflow/internal/cache"
	"github.com/dagflow/dagflow/internal/observability"
	"github.com/dagflow/dagflow/internal/task"
)

// Runtime bundles every resource a dispatch or scheduler run needs. The
// resources it holds are safe for concurrent use. The root package's
// SetTracer and SetMetricsProvider reassign the Tracer and Metrics fields of
// the Default Runtime in place, without synchronization; the middleware
// registry is guarded by its own lock.
type Runtime struct {
	Cache        cache.Cache
	SingleFlight *cache.Group
	Artifacts    artifact.Store
	Events       *observability.EventBus
	Metrics      observability.MetricsProvider
	Tracer       observability.Tracer

	ProcessPoolMaxWorkers int
	MaxDynamicTasks       int
	DefaultExecutor       task.RunMode

	mu         sync.RWMutex
	middleware []task.Middleware
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

func WithCache(c cache.Cache) Option { return func(r *Runtime) { r.Cache = c } }

func WithArtifacts(s artifact.Store) Option { return func(r *Runtime) { r.Artifacts = s } }

func WithEvents(b *observability.EventBus) Option { return func(r *Runtime) { r.Events = b } }

func WithMetrics(m observability.MetricsProvider) Option { return func(r *Runtime) { r.Metrics = m } }

func WithTracer(t observability.Tracer) Option { return func(r *Runtime) { r.Tracer = t } }

func WithProcessPoolMaxWorkers(n int) Option {
	return func(r *Runtime) { r.ProcessPoolMaxWorkers = n }
}

func WithMaxDynamicTasks(n int) Option { return func(r *Runtime) { r.MaxDynamicTasks = n } }

func WithDefaultExecutor(m task.RunMode) Option { return func(r *Runtime) { r.DefaultExecutor = m } }

// New builds a Runtime with sensible in-memory defaults, overridden by opts.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		Cache:                 cache.NewMemoryCache(1000),
		SingleFlight:          cache.NewGroup(),
		Artifacts:             artifact.NewMemoryStore(),
		Events:                observability.NewEventBus(nil),
		Metrics:               observability.NewMetricsCollector(1000),
		Tracer:                observability.NoopTracer{},
		ProcessPoolMaxWorkers: 4,
		MaxDynamicTasks:       10000,
		DefaultExecutor:       task.Thread,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use registers a middleware applied to every dispatch on this Runtime, in
// addition to whatever middleware a Definition declares for itself.
func (r *Runtime) Use(m task.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, m)
}

// GlobalMiddleware returns the registered process-wide middleware, outermost
// first.
func (r *Runtime) GlobalMiddleware() []task.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]task.Middleware, len(r.middleware))
	copy(out, r.middleware)
	return out
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
	defaultMu   sync.Mutex
)

// Default returns the process-wide Runtime, built lazily on first use. Tests
// that need isolation should construct their own Runtime with New instead.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultRT == nil {
			defaultRT = New()
		}
	})
	return defaultRT
}

// SetDefault replaces the process-wide Runtime returned by Default.
func SetDefault(r *Runtime) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRT = r
	defaultOnce.Do(func() {})
}
