package reqsched

import (
	"sync/atomic"
)

// Statistics is a read-only snapshot of scheduler activity.
type Statistics struct {
	// Attempted counts Submit calls that reached the accounting path
	// (data-scheme requests are exempt).
	Attempted int64

	// Active is the number of currently active requests.
	Active int64

	// Cancelled counts all cancellations, including CancelledActive.
	Cancelled int64

	// CancelledActive counts requests cancelled after dispatch.
	CancelledActive int64

	// Failed counts requests whose work function returned an error.
	Failed int64

	// TotalActive is the monotonic count of requests ever dispatched.
	TotalActive int64

	// LastActive is the active count observed at the last tick sample,
	// kept for edge-triggered reporting.
	LastActive int64
}

// schedStats holds the live counters. Writes happen under the scheduler
// mutex so they stay consistent with state transitions; atomics make
// the cold-path snapshot safe without taking it.
type schedStats struct {
	attempted       atomic.Int64
	active          atomic.Int64
	cancelled       atomic.Int64
	cancelledActive atomic.Int64
	failed          atomic.Int64
	totalActive     atomic.Int64
	lastActive      atomic.Int64
}

func (s *schedStats) snapshot() Statistics {
	return Statistics{
		Attempted:       s.attempted.Load(),
		Active:          s.active.Load(),
		Cancelled:       s.cancelled.Load(),
		CancelledActive: s.cancelledActive.Load(),
		Failed:          s.failed.Load(),
		TotalActive:     s.totalActive.Load(),
		LastActive:      s.lastActive.Load(),
	}
}

func (s *schedStats) reset() {
	s.attempted.Store(0)
	s.active.Store(0)
	s.cancelled.Store(0)
	s.cancelledActive.Store(0)
	s.failed.Store(0)
	s.totalActive.Store(0)
	s.lastActive.Store(0)
}
