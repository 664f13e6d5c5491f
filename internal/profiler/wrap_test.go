package profiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapFutureSuccess(t *testing.T) {
	s := Begin("test::wrap")
	f := NewFuture[int]()

	wrapped := WrapFuture(s, f)
	f.Complete(7)

	v, err := wrapped.Wait()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// The scope was ended by the continuation.
	endErr := End(s)
	var precondErr *PreconditionError
	require.ErrorAs(t, endErr, &precondErr)
	assert.Contains(t, endErr.Error(), "already ended")
}

func TestWrapFutureErrorPropagation(t *testing.T) {
	s := Begin("test::wrap_err")
	f := NewFuture[int]()
	boom := errors.New("boom")

	wrapped := WrapFuture(s, f)
	f.Fail(boom)

	_, err := wrapped.Wait()
	// The wrapped error is never swallowed, and the scope still ends.
	assert.Same(t, boom, err)

	var precondErr *PreconditionError
	require.ErrorAs(t, End(s), &precondErr)
}

func TestWrapFutureWrappedErrorWinsOverEndError(t *testing.T) {
	s := Begin("test::wrap_both_fail")
	f := NewFuture[int]()
	boom := errors.New("boom")

	// End the scope up front so the continuation's End fails too.
	require.NoError(t, End(s))

	wrapped := WrapFuture(s, f)
	f.Fail(boom)

	_, err := wrapped.Wait()
	assert.Same(t, boom, err)
}

func TestWrapFutureEndErrorSurfacesOnSuccess(t *testing.T) {
	s := Begin("test::wrap_end_fail")
	f := NewFuture[int]()

	require.NoError(t, End(s))

	wrapped := WrapFuture(s, f)
	f.Complete(7)

	// The value resolved fine, so the instrumentation failure is the
	// only error to report.
	_, err := wrapped.Wait()
	var precondErr *PreconditionError
	require.ErrorAs(t, err, &precondErr)
}

func TestWrapFutureNilScope(t *testing.T) {
	f := NewFuture[int]()

	wrapped := WrapFuture(nil, f)
	f.Complete(7)

	_, err := wrapped.Wait()
	var precondErr *PreconditionError
	require.ErrorAs(t, err, &precondErr)
	assert.Contains(t, err.Error(), "undefined scope handle")
}

func TestWrapFutureOrdering(t *testing.T) {
	s := Begin("test::wrap_order")
	f := NewFuture[int]()
	wrapped := WrapFuture(s, f)

	// Before the inner future resolves, the outer one must not either.
	select {
	case <-wrapped.Done():
		t.Fatal("wrapped future resolved before the inner one")
	default:
	}

	f.Complete(1)
	_, err := wrapped.Wait()
	require.NoError(t, err)

	// By the time the wrapped future resolves, End has already run.
	var precondErr *PreconditionError
	require.ErrorAs(t, End(s), &precondErr)
}

func TestWrapFutureKeepsHandleAlive(t *testing.T) {
	// The caller drops its reference; the continuation's capture must
	// keep the handle alive until End runs.
	f := NewFuture[int]()
	wrapped := WrapFuture(Begin("test::wrap_capture"), f)

	f.Complete(5)
	v, err := wrapped.Wait()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
