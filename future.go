package reqsched

import (
	"context"
	"sync"
	"sync/atomic"
)

// Outcome is the observable result category of a Future.
type Outcome int32

const (
	OutcomePending Outcome = iota
	OutcomeResolved
	OutcomeRejected
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "Pending"
	case OutcomeResolved:
		return "Resolved"
	case OutcomeRejected:
		return "Rejected"
	case OutcomeCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Future is the settled-once result handle returned by Submit. It
// settles exactly once: resolved with a payload, rejected with the work
// function's error, or cancelled with ErrCancelled.
type Future[T any] struct {
	done    chan struct{}
	once    sync.Once
	outcome atomic.Int32

	payload T
	err     error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(o Outcome, payload T, err error) {
	f.once.Do(func() {
		f.payload = payload
		f.err = err
		f.outcome.Store(int32(o))
		close(f.done)
	})
}

func (f *Future[T]) resolve(payload T) {
	f.settle(OutcomeResolved, payload, nil)
}

func (f *Future[T]) reject(err error) {
	var zero T
	f.settle(OutcomeRejected, zero, err)
}

func (f *Future[T]) cancel() {
	var zero T
	f.settle(OutcomeCancelled, zero, ErrCancelled)
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Outcome returns the current outcome without blocking.
func (f *Future[T]) Outcome() Outcome {
	return Outcome(f.outcome.Load())
}

// Result blocks until the future settles and returns its payload or
// error. Cancellation surfaces as ErrCancelled.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.payload, f.err
}

// Wait is Result with a caller-supplied deadline.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.payload, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
