// Package reqsched provides admission control for outbound asset-fetch
// operations: many small, independent network requests issued under a
// global concurrency cap and independent per-server caps, with the most
// urgent pending work admitted first.
//
// Design goals
//
// The package targets clients whose request priorities change every
// tick — a camera move re-ranks which map tiles or textures matter —
// while connection limits must never be exceeded:
//
//   - Bound global concurrent in-flight requests
//   - Bound concurrent requests per destination independently
//   - Admit the highest-priority pending work first
//   - Cancel stale or displaced work when capacity is contested
//   - Never block the caller
//
// Architecture overview
//
// The scheduler is composed of three small layers:
//
//   1. Admission (Submit)
//      A non-blocking offer. The request is dispatched immediately
//      (unthrottled or data-scheme work), rejected immediately
//      (nil future, nil error — a backpressure signal, not an error),
//      or placed in a bounded priority queue behind a pending future.
//
//   2. Scheduling (Tick)
//      Driven by an external cadence such as a render frame. Each tick
//      sweeps settled work out of the active set, refreshes every
//      queued priority exactly once, resorts the queue, and admits the
//      top candidates into open global and per-server slots.
//
//   3. Request lifecycle
//      Unissued -> Issued -> Active -> Received or Failed, with
//      Cancelled reachable from any non-terminal state. Terminal states
//      are final and the scheduler drops all references on arrival.
//
// Queue design
//
// The pending queue is a bounded min-heap ordered by a mutable float64
// priority, where lower means more urgent. Inserting into a full queue
// evicts whichever request ranks worst — possibly the newcomer, which
// is then simply not admitted. Priorities are recomputed in one sweep
// per tick and the heap reinitialized afterwards, so admission within a
// tick sees one consistent ranking.
//
// Two behaviors are deliberate and preserved from the system this
// design comes from: shrinking the queue capacity evicts via repeated
// pop, so the most urgent remaining members go first; and a popped
// request whose destination is saturated is cancelled outright rather
// than requeued — the caller resubmits if the work still matters.
//
// Cancellation
//
// Cancellation is cooperative and is not an error. A cancelled
// request's future settles with ErrCancelled, its cancel callback runs
// exactly once, and it is counted separately from failures. Sources of
// cancellation: the caller's Cancel call, eviction from a full queue,
// a queue-capacity shrink, and server saturation at pop time.
//
// Error handling
//
// Work-function errors settle the future with the underlying error and
// count toward the failed statistic. Per-request outcomes are isolated:
// one failure never interrupts the tick's processing of other requests.
// Missing required fields are programmer errors reported synchronously
// by Submit.
package reqsched
