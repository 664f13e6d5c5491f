package profiler

// WrapFuture attaches a continuation to fut that ends the scope when the
// asynchronous value resolves (successfully or with an error) and then
// re-propagates the original outcome unchanged to the returned future.
//
// Guarantees:
//   - End(s) runs strictly after fut resolves and strictly before the
//     returned future resolves.
//   - A wrapped error is never swallowed or altered; instrumentation
//     failures surface only when the wrapped value itself succeeded.
//   - The scope's captured Context is threaded into the continuation,
//     so scope-end events carry the state active at Begin time even
//     though the continuation runs on an arbitrary goroutine.
//
// The continuation's capture of s is the sole mechanism keeping the
// handle alive past the caller's stack frame; it stays reachable until
// End has run.
func WrapFuture[T any](s *Scope, fut *Future[T]) *Future[T] {
	return fut.Then(func(v T, err error) (T, error) {
		if s == nil {
			var zero T
			return zero, &PreconditionError{
				Detail: "undefined scope handle: the handle was not persisted until the wrapped value resolved",
			}
		}
		if endErr := End(s); endErr != nil && err == nil {
			var zero T
			return zero, endErr
		}
		return v, err
	})
}
