package reqsched

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	lg "github.com/Andrej220/go-utils/zlog"
)

// Scheduler gates outbound requests under a global concurrency cap and
// independent per-server caps, admitting the most urgent pending work
// first. Instances are independent; nothing is shared between them.
//
// Submit never blocks. Tick is expected to run once per external
// cadence (a render frame, a poll loop) and performs the actual
// admission. Both are safe for concurrent use, though the intended
// model is a single control goroutine with work completions arriving
// asynchronously.
type Scheduler[T any] struct {
	mu sync.Mutex

	maximumRequests int
	throttle        bool
	base            *url.URL

	queue   *priorityQueue[T]
	active  []*Request[T]
	servers *serverTracker
	stats   schedStats
}

// New builds a Scheduler from opts. Zero option fields fall back to
// defaults. It fails on an unparsable BaseURL or PerServerLimits key.
func New[T any](opts Options) (*Scheduler[T], error) {
	opts.FillDefaults()

	var base *url.URL
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("reqsched: bad base url %q: %w", opts.BaseURL, err)
		}
		base = u
	}

	overrides := make(map[ServerKey]int, len(opts.PerServerLimits))
	for raw, n := range opts.PerServerLimits {
		k, err := ParseServerKey(raw)
		if err != nil {
			return nil, err
		}
		overrides[k] = n
	}

	return &Scheduler[T]{
		maximumRequests: opts.MaximumRequests,
		throttle:        !opts.DisableThrottling,
		base:            base,
		queue:           newPriorityQueue[T](opts.PriorityHeapLength),
		active:          make([]*Request[T], 0, opts.MaximumRequests),
		servers:         newServerTracker(opts.MaximumRequestsPerServer, overrides),
	}, nil
}

// Submit offers a request for admission and never blocks.
//
// The return contract has three shapes:
//   - a non-nil Future: the request was dispatched or queued;
//   - (nil, nil): not admitted right now — backpressure, not an error;
//     the caller resubmits later if the work is still relevant;
//   - (nil, err): a precondition violation such as a missing URL or a
//     nil work function.
//
// Data-scheme URLs bypass all accounting: the work function runs
// immediately and the future settles from its result without touching
// statistics, the queue, or any counter.
func (s *Scheduler[T]) Submit(r *Request[T]) (*Future[T], error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if r.Ctx == nil {
		r.Ctx = context.Background()
	}

	if isDataURL(r.URL) {
		r.setState(StateReceived)
		f := newFuture[T]()
		r.future = f
		s.run(r, f)
		return f, nil
	}

	s.mu.Lock()
	s.stats.attempted.Add(1)

	key, err := r.serverKey(s.base)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	// A saturated destination rejects the request before any other
	// consideration, even for requests exempt from the global cap.
	if s.throttle && r.ThrottleByServer && !s.servers.hasOpenSlots(key, 1) {
		s.mu.Unlock()
		return nil, nil
	}

	if !s.throttle || !r.Throttle {
		// Exempt from the cap, not merely deprioritized: counters may
		// temporarily exceed the nominal limits.
		r.setState(StateIssued)
		f := s.startLocked(r)
		s.mu.Unlock()
		s.dispatch(r, f)
		return f, nil
	}

	if len(s.active) >= s.maximumRequests {
		// No capacity to even queue more admission work this tick.
		s.mu.Unlock()
		return nil, nil
	}

	r.refreshPriority()
	evicted := s.queue.insert(r)
	if evicted == r {
		s.mu.Unlock()
		return nil, nil
	}
	if evicted != nil {
		s.cancelQueuedLocked(evicted)
	}
	r.setState(StateIssued)
	f := newFuture[T]()
	r.future = f
	s.mu.Unlock()

	if evicted != nil {
		s.finalizeCancel(evicted)
	}
	return f, nil
}

// Tick reconciles completed work and admits as many top-priority
// candidates as open slots allow. Admission decisions reflect
// priorities as of the start of the tick.
func (s *Scheduler[T]) Tick() {
	var cancels, started []*Request[T]

	s.mu.Lock()

	// Sweep the active set, compacting without reordering. Requests
	// that settled since the last tick are dropped; active requests
	// flagged for cancellation are cancelled here.
	kept := s.active[:0]
	for _, r := range s.active {
		if r.State() == StateActive && r.CancelRequested() {
			s.cancelActiveLocked(r)
			cancels = append(cancels, r)
			continue
		}
		if r.State() != StateActive {
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept

	s.queue.tick()

	openSlots := s.maximumRequests - len(s.active)
	for openSlots > 0 {
		r := s.queue.pop()
		if r == nil {
			break
		}
		if r.CancelRequested() {
			s.cancelQueuedLocked(r)
			cancels = append(cancels, r)
			continue
		}
		// A saturated destination cancels the popped request outright;
		// the caller must resubmit. It does not consume a slot.
		if r.ThrottleByServer && !s.servers.hasOpenSlots(r.key, 1) {
			s.cancelQueuedLocked(r)
			cancels = append(cancels, r)
			continue
		}
		started = append(started, r)
		s.startLocked(r)
		openSlots--
	}

	active := s.stats.active.Load()
	changed := active != s.stats.lastActive.Load()
	s.stats.lastActive.Store(active)
	snap := s.stats.snapshot()
	s.mu.Unlock()

	for _, r := range cancels {
		s.finalizeCancel(r)
	}
	for _, r := range started {
		s.dispatch(r, r.future)
	}

	if changed {
		lg.FromContext(context.Background()).Info("request scheduler activity",
			lg.Any("active", snap.Active),
			lg.Any("attempted", snap.Attempted),
			lg.Any("cancelled", snap.Cancelled),
			lg.Any("failed", snap.Failed),
			lg.Any("total_active", snap.TotalActive),
		)
	}
}

// startLocked activates r: it joins the active set and the global and
// per-server counters move together with the state transition.
func (s *Scheduler[T]) startLocked(r *Request[T]) *Future[T] {
	if r.future == nil {
		r.future = newFuture[T]()
	}
	r.setState(StateActive)
	s.active = append(s.active, r)
	s.servers.acquire(r.key)
	s.stats.active.Add(1)
	s.stats.totalActive.Add(1)
	return r.future
}

// dispatch runs the work function on its own goroutine and wires its
// settlement back into the scheduler.
func (s *Scheduler[T]) dispatch(r *Request[T], f *Future[T]) {
	lg.FromContext(r.Ctx).Info("request dispatched",
		lg.String("url", r.URL),
		lg.Any("priority", r.Priority),
	)
	go func() {
		payload, err := r.Work(r.Ctx)
		s.settle(r, f, payload, err)
	}()
}

// run executes work outside all accounting, for the data-scheme bypass.
func (s *Scheduler[T]) run(r *Request[T], f *Future[T]) {
	go func() {
		payload, err := r.Work(r.Ctx)
		if err != nil {
			f.reject(err)
			return
		}
		f.resolve(payload)
	}()
}

func (s *Scheduler[T]) settle(r *Request[T], f *Future[T], payload T, err error) {
	s.mu.Lock()
	if r.State() != StateActive {
		// Cancelled while active; the future is already settled and the
		// counters already released.
		s.mu.Unlock()
		return
	}
	if err != nil {
		r.setState(StateFailed)
		s.stats.failed.Add(1)
	} else {
		r.setState(StateReceived)
	}
	s.servers.release(r.key)
	s.stats.active.Add(-1)
	s.mu.Unlock()

	if err != nil {
		lg.FromContext(r.Ctx).Error("request failed",
			lg.String("url", r.URL),
			lg.Any("error", err),
		)
		f.reject(err)
		return
	}
	f.resolve(payload)
}

// cancelQueuedLocked transitions a never-activated request to Cancelled.
func (s *Scheduler[T]) cancelQueuedLocked(r *Request[T]) {
	r.setState(StateCancelled)
	s.stats.cancelled.Add(1)
}

// cancelActiveLocked transitions an active request to Cancelled and
// releases its slots.
func (s *Scheduler[T]) cancelActiveLocked(r *Request[T]) {
	r.setState(StateCancelled)
	s.servers.release(r.key)
	s.stats.active.Add(-1)
	s.stats.cancelled.Add(1)
	s.stats.cancelledActive.Add(1)
}

// finalizeCancel runs the user-facing side of a cancellation outside
// the lock: the cancel callback, the future, the log line.
func (s *Scheduler[T]) finalizeCancel(r *Request[T]) {
	if r.CancelFn != nil {
		r.CancelFn()
	}
	if r.future != nil {
		r.future.cancel()
	}
	lg.FromContext(r.Ctx).Info("request cancelled", lg.String("url", r.URL))
}

// Stats returns a snapshot of the activity counters.
func (s *Scheduler[T]) Stats() Statistics {
	return s.stats.snapshot()
}

// QueueLength returns the number of requests pending admission.
func (s *Scheduler[T]) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// SetMaximumRequests updates the global concurrency cap. Takes effect
// at the next Tick.
func (s *Scheduler[T]) SetMaximumRequests(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maximumRequests = n
}

// SetMaximumRequestsPerServer updates the default per-server cap.
func (s *Scheduler[T]) SetMaximumRequestsPerServer(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers.setDefaultLimit(n)
}

// SetServerLimit overrides the cap for one destination.
func (s *Scheduler[T]) SetServerLimit(k ServerKey, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers.setLimit(k, n)
}

// SetThrottleRequests switches the caps on or off globally.
func (s *Scheduler[T]) SetThrottleRequests(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle = on
}

// SetPriorityHeapLength resizes the admission queue. Shrinking below
// the current queue length synchronously cancels queued requests, most
// urgent first, until the queue fits.
func (s *Scheduler[T]) SetPriorityHeapLength(n int) {
	s.mu.Lock()
	evicted := s.queue.setMaximumLength(n)
	for _, r := range evicted {
		s.cancelQueuedLocked(r)
	}
	s.mu.Unlock()

	for _, r := range evicted {
		s.finalizeCancel(r)
	}
}

// Reset cancels all queued and active work and zeroes the counters.
// Intended for test isolation.
func (s *Scheduler[T]) Reset() {
	var cancels []*Request[T]

	s.mu.Lock()
	for {
		r := s.queue.pop()
		if r == nil {
			break
		}
		s.cancelQueuedLocked(r)
		cancels = append(cancels, r)
	}
	for _, r := range s.active {
		if r.State() == StateActive {
			s.cancelActiveLocked(r)
			cancels = append(cancels, r)
		}
	}
	s.active = s.active[:0]
	s.servers.reset()
	s.stats.reset()
	s.mu.Unlock()

	for _, r := range cancels {
		s.finalizeCancel(r)
	}
}
