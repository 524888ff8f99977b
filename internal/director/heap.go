package director

// scheduledCallback is one entry in the director's callback queue. index is
// maintained by container/heap and lets ClearScheduledCallback/
// HandlePriorityUpdate locate and re-sort an existing entry in O(log n)
// instead of a linear scan.
type scheduledCallback struct {
	id         int
	fn         func()
	delayMS    int64
	periodic   bool
	priority   int
	nextExecMS int64
	index      int
}

// callbackHeap orders scheduledCallbacks by the director's strict total
// order: execution time, then priority, then callback id (insertion order).
type callbackHeap []*scheduledCallback

func (h callbackHeap) Len() int { return len(h) }

func (h callbackHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.nextExecMS != b.nextExecMS {
		return a.nextExecMS < b.nextExecMS
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.id < b.id
}

func (h callbackHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *callbackHeap) Push(x any) {
	cb := x.(*scheduledCallback)
	cb.index = len(*h)
	*h = append(*h, cb)
}

func (h *callbackHeap) Pop() any {
	old := *h
	n := len(old)
	cb := old[n-1]
	old[n-1] = nil
	cb.index = -1
	*h = old[:n-1]
	return cb
}
