package pingpong

import "container/heap"

// eventHeap orders events by time. Events scheduled for the same time are
// ordered by the sequence in which they were scheduled.
type eventHeap []Event

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i].Meta(), h[j].Meta()
	if a.Time != b.Time {
		return a.Time < b.Time
	}

	return a.Seq < b.Seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return evt
}

func (h *eventHeap) push(evt Event) {
	heap.Push(h, evt)
}

func (h *eventHeap) pop() Event {
	return heap.Pop(h).(Event)
}
