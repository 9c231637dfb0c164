package eventbus

import (
	"sync"
	"sync/atomic"
)

// Subscriber owns a set of tag-keyed handlers and an inbound priority
// queue fed by one or more Publishers. Sync dispatches on whatever thread
// calls ProcessEvents; Async drains on its own dedicated worker.
type Subscriber interface {
	Subscribe(tag string, handler Handler)
	Enqueue(tag string, e Event)
	TotalErrorCount() uint64
	Close()
}

type baseSubscriber struct {
	subsMu sync.Mutex
	subs   *subscriptionTable
	queue  *priorityQueue
	errs   atomic.Uint64
}

func newBaseSubscriber() baseSubscriber {
	return baseSubscriber{subs: newSubscriptionTable(), queue: newPriorityQueue()}
}

func (b *baseSubscriber) Subscribe(tag string, handler Handler) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.subs.add(tag, handler)
}

func (b *baseSubscriber) Enqueue(tag string, e Event) {
	b.queue.push(tag, e)
}

func (b *baseSubscriber) TotalErrorCount() uint64 {
	return b.errs.Load()
}

func (b *baseSubscriber) dispatchOne(item *taggedEvent) {
	b.subsMu.Lock()
	handlers := b.subs.get(item.tag)
	b.subsMu.Unlock()
	for _, h := range handlers {
		if err := h(item.event); err != nil {
			b.errs.Add(1)
		}
	}
}

// SyncSubscriber buffers inbound events; ProcessEvents drains and
// dispatches them, in priority-then-timestamp-then-insertion order, on
// the calling goroutine.
type SyncSubscriber struct {
	baseSubscriber
}

// NewSyncSubscriber returns an empty SyncSubscriber.
func NewSyncSubscriber() *SyncSubscriber {
	return &SyncSubscriber{baseSubscriber: newBaseSubscriber()}
}

// ProcessEvents drains every currently queued event and returns how many
// were dispatched. Events enqueued concurrently with a running call may or
// may not be included; a fresh call picks up whatever remains.
func (s *SyncSubscriber) ProcessEvents() int {
	dispatched := 0
	for {
		item, ok := s.queue.pop()
		if !ok {
			break
		}
		s.dispatchOne(item)
		dispatched++
	}
	return dispatched
}

// Close is a no-op for SyncSubscriber: there is no worker to stop.
func (s *SyncSubscriber) Close() {}

// AsyncSubscriber drains its priority queue on one dedicated worker
// goroutine, woken by a buffered signal channel rather than polling, the
// same dedicated-per-queue-worker shape used elsewhere in this module's
// ancestry for I/O completion loops.
type AsyncSubscriber struct {
	baseSubscriber

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewAsyncSubscriber starts the worker goroutine and returns the ready
// subscriber.
func NewAsyncSubscriber() *AsyncSubscriber {
	s := &AsyncSubscriber{
		baseSubscriber: newBaseSubscriber(),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *AsyncSubscriber) Enqueue(tag string, e Event) {
	s.baseSubscriber.Enqueue(tag, e)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *AsyncSubscriber) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			s.discardRemaining()
			return
		default:
		}

		item, ok := s.queue.pop()
		if ok {
			s.dispatchOne(item)
			continue
		}
		select {
		case <-s.wake:
		case <-s.done:
			s.discardRemaining()
			return
		}
	}
}

// discardRemaining drops every event still queued without dispatching it.
func (s *AsyncSubscriber) discardRemaining() {
	for {
		if _, ok := s.queue.pop(); !ok {
			return
		}
	}
}

// Close stops the worker: an in-flight dispatch is allowed to finish, but
// any event still queued once the worker notices is discarded, not dispatched.
func (s *AsyncSubscriber) Close() {
	close(s.done)
	s.wg.Wait()
}

var _ Subscriber = (*SyncSubscriber)(nil)
var _ Subscriber = (*AsyncSubscriber)(nil)
