package task

// Option configures a Definition at declaration time. The pattern mirrors
// cel-go's cel.EnvOption functional options, used the same way elsewhere in
// this module's dependency stack.
type Option func(*Definition)

func WithRunIn(mode RunMode) Option {
	return func(d *Definition) { d.RunIn = mode }
}

func WithRetries(n int) Option {
	return func(d *Definition) { d.Retries = n }
}

// WithBackoff sets the base retry backoff in seconds.
func WithBackoff(seconds float64) Option {
	return func(d *Definition) { d.RetryBackoff = seconds }
}

// WithJitter sets the additive uniform jitter window in seconds.
func WithJitter(seconds float64) Option {
	return func(d *Definition) { d.RetryJitter = seconds }
}

func WithTimeout(seconds float64) Option {
	return func(d *Definition) {
		d.Timeout = seconds
		d.HasTimeout = true
	}
}

func WithCacheTTL(seconds float64) Option {
	return func(d *Definition) {
		d.CacheTTL = seconds
		d.HasCache = true
	}
}

func WithCacheKeyFunc(fn CacheKeyFunc) Option {
	return func(d *Definition) { d.CacheKeyFn = fn }
}

func WithPersist(persist bool) Option {
	return func(d *Definition) { d.Persist = persist }
}

func WithPriority(p int) Option {
	return func(d *Definition) { d.Priority = p }
}

func WithTags(tags ...string) Option {
	return func(d *Definition) {
		for _, t := range tags {
			d.Tags[t] = struct{}{}
		}
	}
}

// WithMiddleware appends per-task middleware layers, composed innermost
// (closest to fn) last, matching the onion-composition order of the
// process-wide middleware chain in internal/pipeline.
func WithMiddleware(mw ...Middleware) Option {
	return func(d *Definition) { d.Middleware = append(d.Middleware, mw...) }
}
