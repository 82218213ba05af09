// Package async provides the single-completion primitive used by every
// non-blocking operation in qrfetch.
//
// An operation returns a receive-only channel that yields exactly one
// [Result] and is then closed. Callers either receive from it directly or
// hand it to [Then] to get callback-style delivery.
//
//	res := <-fetcher.FetchText(ctx, url)
//	if res.Err != nil {
//	    // advance to the next tier
//	}
package async

import (
	"context"
	"fmt"
)

// Result carries the outcome of one asynchronous operation.
// Exactly one of Value or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Go runs fn on a new goroutine and returns a channel that receives its
// result exactly once. A panic inside fn is recovered and delivered as an
// error, so a fault in one operation can never take down its caller.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		ch <- run(ctx, fn)
	}()
	return ch
}

func run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = Result[T]{Value: zero, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err := fn(ctx)
	return Result[T]{Value: v, Err: err}
}

// Done returns an already-completed channel holding v and err.
func Done[T any](v T, err error) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	ch <- Result[T]{Value: v, Err: err}
	close(ch)
	return ch
}

// Fail returns an already-completed channel holding err.
func Fail[T any](err error) <-chan Result[T] {
	var zero T
	return Done(zero, err)
}

// Await blocks until ch completes or ctx is done.
// A closed channel without a value is reported as an error.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	var zero T
	select {
	case res, ok := <-ch:
		if !ok {
			return zero, fmt.Errorf("operation completed without a result")
		}
		return res.Value, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Then delivers the single result of ch to fn on a new goroutine.
// fn is called exactly once.
func Then[T any](ch <-chan Result[T], fn func(T, error)) {
	go func() {
		res, ok := <-ch
		if !ok {
			var zero T
			fn(zero, fmt.Errorf("operation completed without a result"))
			return
		}
		fn(res.Value, res.Err)
	}()
}
