// Package profiler provides named instrumentation scopes and a small
// asynchronous-value (future) facility for bracketing async computations
// with begin/end instrumentation.
package profiler

import (
	"sync"
	"time"

	"github.com/corten-ml/corten/internal/logger"
	"github.com/corten-ml/corten/internal/metrics"
)

// PreconditionError reports misuse of the instrumentation API: ending a
// scope that was never begun, ending it twice, or observing a resolved
// asynchronous value with an undefined scope handle.
type PreconditionError struct {
	Detail string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return "profiler: " + e.Detail
}

// Context is the instrumentation state snapshot captured when a scope is
// begun. It is threaded explicitly into continuations instead of being
// looked up from ambient goroutine-local state, so the state active at
// wrap time is the state in effect when the continuation runs, regardless
// of which goroutine runs it.
type Context struct {
	// Labels are extra key-value pairs attached to scope log events.
	Labels map[string]string
}

// Scope is a handle for a named instrumentation interval. Begin starts
// measurement; End stops it and records the duration. A Scope may be
// captured by a future continuation and outlive the stack frame that
// created it; the closure capture keeps it alive until End runs.
type Scope struct {
	name  string
	start time.Time
	ctx   *Context

	mu      sync.Mutex
	entered bool
	ended   bool
}

// Begin creates a new instrumentation scope tagged name and begins
// measurement.
func Begin(name string) *Scope {
	return BeginIn(nil, name)
}

// BeginIn begins a scope within an explicit instrumentation context.
// A nil context is replaced with an empty one.
func BeginIn(ctx *Context, name string) *Scope {
	if ctx == nil {
		ctx = &Context{}
	}
	s := &Scope{
		name:    name,
		start:   time.Now(),
		ctx:     ctx,
		entered: true,
	}
	logScope("scope begin", s, 0)
	return s
}

// Name returns the scope's tag.
func (s *Scope) Name() string {
	return s.name
}

// Context returns the instrumentation context captured at Begin.
func (s *Scope) Context() *Context {
	return s.ctx
}

// End stops measurement for a previously begun scope and records its
// duration. Returns a PreconditionError if the handle is nil, was never
// begun, or was already ended.
func End(s *Scope) error {
	if s == nil {
		return &PreconditionError{Detail: "scope handle is nil; End requires a handle returned by Begin"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.entered {
		return &PreconditionError{Detail: "scope must be begun via Begin before End"}
	}
	if s.ended {
		return &PreconditionError{Detail: "scope " + s.name + " already ended"}
	}
	s.ended = true

	d := time.Since(s.start)
	metrics.RecordScope(s.name, d)
	logScope("scope end", s, d)
	return nil
}

// logScope emits a debug event with the scope's captured context labels.
func logScope(msg string, s *Scope, d time.Duration) {
	args := []interface{}{"scope", s.name}
	if d > 0 {
		args = append(args, "duration", d)
	}
	for k, v := range s.ctx.Labels {
		args = append(args, k, v)
	}
	logger.Log.Debug(msg, args...)
}
