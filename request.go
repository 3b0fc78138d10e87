package reqsched

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
)

var (
	// ErrMissingURL is returned by Submit when a request has no URL.
	ErrMissingURL = errors.New("reqsched: request url is empty")

	// ErrNilWork is returned by Submit when a request has no work func.
	ErrNilWork = errors.New("reqsched: request work func is nil")

	// ErrCancelled marks a future that was settled by cancellation rather
	// than by the work function. Callers distinguish it from real failures
	// with errors.Is.
	ErrCancelled = errors.New("reqsched: request cancelled")
)

// WorkFunc performs the actual operation for a request and returns its
// payload. The scheduler invokes it at most once, on its own goroutine,
// only after admission.
type WorkFunc[T any] func(ctx context.Context) (T, error)

// PriorityFunc recomputes a request's priority. It is called once per
// Tick for queued requests and once at Submit time. It must not call
// back into the scheduler.
type PriorityFunc func() float64

// CancelFunc is invoked exactly once when a request is cancelled,
// typically to abort an in-flight transport operation.
type CancelFunc func()

// RequestState tracks a request through its lifecycle. States only move
// forward; Received, Failed and Cancelled are terminal.
type RequestState int32

const (
	StateUnissued RequestState = iota
	StateIssued
	StateActive
	StateReceived
	StateFailed
	StateCancelled
)

func (s RequestState) String() string {
	switch s {
	case StateUnissued:
		return "Unissued"
	case StateIssued:
		return "Issued"
	case StateActive:
		return "Active"
	case StateReceived:
		return "Received"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s RequestState) Terminal() bool {
	return s == StateReceived || s == StateFailed || s == StateCancelled
}

// Request describes one unit of outbound work submitted to a Scheduler.
//
// URL and Work are required. Priority orders admission: lower values are
// more urgent. PriorityFn, when set, refreshes Priority once per tick.
// CancelFn, when set, runs exactly once if the request is cancelled.
//
// The zero value of Throttle/ThrottleByServer means unthrottled; use
// NewRequest to get the default throttled behavior.
type Request[T any] struct {
	URL string
	Ctx context.Context

	Work       WorkFunc[T]
	PriorityFn PriorityFunc
	CancelFn   CancelFunc

	// Priority orders queued requests; lower is more urgent.
	Priority float64

	// Throttle subjects the request to the global concurrency cap.
	Throttle bool

	// ThrottleByServer subjects the request to the per-server cap.
	ThrottleByServer bool

	state     atomic.Int32
	cancelled atomic.Bool

	// key is derived once per request and cached.
	key    ServerKey
	hasKey bool

	future *Future[T]

	// index is maintained by the priority heap.
	index int
}

// NewRequest returns a throttled request for url. Fields other than the
// throttle flags keep their zero values and may be set before Submit.
func NewRequest[T any](url string, work WorkFunc[T]) *Request[T] {
	return &Request[T]{
		URL:              url,
		Work:             work,
		Throttle:         true,
		ThrottleByServer: true,
	}
}

// State returns the current lifecycle state. Safe to call from any
// goroutine.
func (r *Request[T]) State() RequestState {
	return RequestState(r.state.Load())
}

func (r *Request[T]) setState(s RequestState) {
	r.state.Store(int32(s))
}

// Cancel requests cooperative cancellation. A queued request is
// cancelled when it is next popped; an active request is cancelled
// during the next Tick sweep.
func (r *Request[T]) Cancel() {
	r.cancelled.Store(true)
}

// CancelRequested reports whether Cancel has been called.
func (r *Request[T]) CancelRequested() bool {
	return r.cancelled.Load()
}

// ServerKey returns the cached destination key, deriving it on first
// use. base resolves relative URLs and may be nil.
func (r *Request[T]) serverKey(base *url.URL) (ServerKey, error) {
	if r.hasKey {
		return r.key, nil
	}
	k, err := DeriveServerKey(r.URL, base)
	if err != nil {
		return ServerKey{}, err
	}
	r.key = k
	r.hasKey = true
	return k, nil
}

func (r *Request[T]) refreshPriority() {
	if r.PriorityFn != nil {
		r.Priority = r.PriorityFn()
	}
}

func (r *Request[T]) validate() error {
	if r.URL == "" {
		return ErrMissingURL
	}
	if r.Work == nil {
		return ErrNilWork
	}
	return nil
}

// isDataURL reports whether the destination is an inline payload that
// needs no network hop.
func isDataURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "data:")
}
