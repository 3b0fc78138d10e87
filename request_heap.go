package reqsched

// requestHeap — min-heap by Priority
type requestHeap[T any] []*Request[T]

func (h requestHeap[T]) Len() int { return len(h) }
func (h requestHeap[T]) Less(i, j int) bool {
	return h[i].Priority < h[j].Priority // min-heap
}
func (h requestHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap[T]) Push(x any) {
	r := x.(*Request[T])
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *requestHeap[T]) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}
