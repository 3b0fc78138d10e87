package reqsched

import (
	"container/heap"
)

// priorityQueue holds requests pending admission, ordered by priority
// (lower value pops first). The queue is bounded: inserting into a full
// queue evicts whichever request ranks worst, which may be the newly
// inserted one.
type priorityQueue[T any] struct {
	h         requestHeap[T]
	maxLength int
}

func newPriorityQueue[T any](maxLength int) *priorityQueue[T] {
	q := &priorityQueue[T]{maxLength: maxLength}
	q.reserve(maxLength)
	heap.Init(&q.h)
	return q
}

func (q *priorityQueue[T]) len() int { return q.h.Len() }

func (q *priorityQueue[T]) maximumLength() int { return q.maxLength }

// reserve grows the backing array to hold capacity requests without
// reallocation.
func (q *priorityQueue[T]) reserve(capacity int) {
	if capacity > cap(q.h) {
		grown := make(requestHeap[T], len(q.h), capacity)
		copy(grown, q.h)
		q.h = grown
	}
}

// insert adds r by priority and returns the evicted request, if any.
//
// Below capacity the result is nil. At capacity, the numerically worst
// member is compared against r: if r is no better it is returned
// unchanged and was never queued; otherwise the worst member is removed
// and returned, and r takes its place.
func (q *priorityQueue[T]) insert(r *Request[T]) *Request[T] {
	if q.maxLength <= 0 {
		return r
	}
	if q.h.Len() < q.maxLength {
		heap.Push(&q.h, r)
		return nil
	}
	worst := 0
	for i := 1; i < len(q.h); i++ {
		if q.h[i].Priority > q.h[worst].Priority {
			worst = i
		}
	}
	if r.Priority >= q.h[worst].Priority {
		return r
	}
	evicted := heap.Remove(&q.h, worst).(*Request[T])
	heap.Push(&q.h, r)
	return evicted
}

// pop removes and returns the most urgent request, or nil when empty.
func (q *priorityQueue[T]) pop() *Request[T] {
	if q.h.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*Request[T])
}

// tick refreshes every queued request's priority from its priority
// function, then resorts. Runs once per scheduler tick so admission in
// that tick sees a consistent ranking.
func (q *priorityQueue[T]) tick() {
	for _, r := range q.h {
		r.refreshPriority()
	}
	q.resort()
}

// resort rebuilds heap order after member priorities were mutated in
// place.
func (q *priorityQueue[T]) resort() {
	heap.Init(&q.h)
}

// setMaximumLength updates the capacity. Shrinking below the current
// length evicts members one at a time via pop, so the evicted members
// are the most urgent remaining ones at each step. The evicted requests
// are returned for the caller to cancel.
func (q *priorityQueue[T]) setMaximumLength(n int) []*Request[T] {
	if n < 0 {
		n = 0
	}
	var evicted []*Request[T]
	for q.h.Len() > n {
		evicted = append(evicted, q.pop())
	}
	q.maxLength = n
	return evicted
}
