package eventbus

import (
	"container/heap"
	"sync"
)

// taggedEvent pairs an Event with the subscription tag it was enqueued
// against plus a strictly increasing sequence number, the insertion-order
// tie-breaker container/heap alone cannot provide.
type taggedEvent struct {
	tag   string
	event Event
	seq   uint64
}

// heapSlice implements container/heap.Interface ordering first by
// priority ascending, then created_ms ascending, then insertion order.
// No suitable third-party priority-queue library surfaced anywhere in the
// retrieval pack, so this leans on the standard library container/heap.
type heapSlice []*taggedEvent

func (h heapSlice) Len() int { return len(h) }

func (h heapSlice) Less(i, j int) bool {
	if h[i].event.Priority != h[j].event.Priority {
		return h[i].event.Priority < h[j].event.Priority
	}
	if h[i].event.CreatedMs != h[j].event.CreatedMs {
		return h[i].event.CreatedMs < h[j].event.CreatedMs
	}
	return h[i].seq < h[j].seq
}

func (h heapSlice) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *heapSlice) Push(x any) {
	*h = append(*h, x.(*taggedEvent))
}

func (h *heapSlice) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// priorityQueue is a concurrency-safe priority queue of taggedEvents,
// shared by Sync and Async subscribers as their single inbound queue.
type priorityQueue struct {
	mu      sync.Mutex
	heap    heapSlice
	counter uint64
}

func newPriorityQueue() *priorityQueue {
	pq := &priorityQueue{}
	heap.Init(&pq.heap)
	return pq
}

func (pq *priorityQueue) push(tag string, e Event) {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	pq.counter++
	heap.Push(&pq.heap, &taggedEvent{tag: tag, event: e, seq: pq.counter})
}

// pop removes and returns the highest-priority item, or ok=false if empty.
func (pq *priorityQueue) pop() (*taggedEvent, bool) {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	if pq.heap.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&pq.heap).(*taggedEvent), true
}

func (pq *priorityQueue) len() int {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.heap.Len()
}
