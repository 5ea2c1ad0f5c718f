// Package intercept is a small framework of composable wrappers around a
// unit of work: structured logging, input validation, retry with backoff,
// and cache-aside/cache-invalidate behavior. Interceptors preserve the
// wrapped handler's return-or-fail contract; none of them swallows an
// error silently.
package intercept

import "context"

// Handler is the unit of work: an operation with ordered positional
// arguments and a single result or failure.
type Handler func(ctx context.Context, args []any) (any, error)

// Interceptor wraps a handler with additional behavior.
type Interceptor func(next Handler) Handler

// Chain applies interceptors outermost-first: the first interceptor sees
// the call before all the others. Composition order matters: logging wraps
// the outermost boundary, validation runs before retry, retry before the
// underlying call.
func Chain(h Handler, interceptors ...Interceptor) Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = interceptors[i](h)
	}
	return h
}

// Identity names the operation being intercepted, for log events, spans
// and error-report tags.
type Identity struct {
	Component string
	Method    string
}

func (id Identity) String() string {
	return id.Component + "." + id.Method
}

// Reporter captures failures with contextual tags. Satisfied by
// observability.Reporter.
type Reporter interface {
	Capture(ctx context.Context, err error, tags map[string]string)
}
