// Copyright 2026 Corten ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package profiler provides the public API for profiling scopes.
//
// A Scope measures the wall-clock span of an operation. Synchronous
// code brackets work with Begin and End; asynchronous code wraps a
// Future with WrapFuture so the scope ends when the future resolves.
//
// Example:
//
//	s := profiler.Begin("model::forward")
//	out := model.Forward(x)
//	_ = profiler.End(s)
package profiler

import (
	"github.com/corten-ml/corten/internal/profiler"
)

// Scope is an open profiling span.
type Scope = profiler.Scope

// Context carries labels attached to scopes started from it.
type Context = profiler.Context

// Future is a single-assignment result container.
type Future[T any] = profiler.Future[T]

// PreconditionError reports misuse of the scope API, such as ending
// a scope twice.
type PreconditionError = profiler.PreconditionError

// Begin opens a named profiling scope.
func Begin(name string) *Scope {
	return profiler.Begin(name)
}

// BeginIn opens a named profiling scope carrying the context's labels.
func BeginIn(ctx *Context, name string) *Scope {
	return profiler.BeginIn(ctx, name)
}

// End closes a scope, recording its duration. It fails if the scope
// is nil or already ended.
func End(s *Scope) error {
	return profiler.End(s)
}

// NewFuture creates an unresolved future.
func NewFuture[T any]() *Future[T] {
	return profiler.NewFuture[T]()
}

// WrapFuture returns a future that resolves with fut's result after
// ending the scope. Errors from fut take precedence over End errors.
func WrapFuture[T any](s *Scope, fut *Future[T]) *Future[T] {
	return profiler.WrapFuture(s, fut)
}
