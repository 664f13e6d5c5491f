package profiler

import "sync"

// Future is an asynchronous value of type T: a handle for a result that is
// not yet available. It resolves exactly once, either with a value
// (Complete) or an error (Fail); later resolutions are ignored.
// Continuations attached with Then run after resolution, in order of
// chaining, on an arbitrary goroutine.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewFuture creates an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Complete resolves the future with a value. No-op if already resolved.
func (f *Future[T]) Complete(v T) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

// Fail resolves the future with an error. No-op if already resolved.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves and returns its outcome.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Then attaches a continuation and returns a future that resolves with
// the continuation's outcome. The continuation receives the parent's
// value and error and runs strictly after the parent resolves and
// strictly before the returned future resolves.
func (f *Future[T]) Then(fn func(T, error) (T, error)) *Future[T] {
	child := NewFuture[T]()
	go func() {
		<-f.done
		v, err := fn(f.value, f.err)
		if err != nil {
			child.Fail(err)
			return
		}
		child.Complete(v)
	}()
	return child
}
