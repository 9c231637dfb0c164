package eventbus

import (
	"sync"
	"time"
)

// Publisher delivers events to every subscriber registered against it.
// Variants that cannot complete synchronously (Delayed, Periodic,
// SilentTimeout) expose their own Publish signature returning a Future
// instead of satisfying this interface.
type Publisher interface {
	AddSubscriber(s Subscriber)
	Publish(tag string, e Event) error
}

// subscriberList is the shared registration list every publisher variant
// embeds; reads take a snapshot so dispatch never holds the lock while
// calling into subscriber code.
type subscriberList struct {
	mu   sync.Mutex
	subs []Subscriber
}

func (l *subscriberList) add(s Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, s)
}

func (l *subscriberList) snapshot() []Subscriber {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Subscriber, len(l.subs))
	copy(out, l.subs)
	return out
}

// SyncPublisher enqueues into every matching subscriber on the caller's
// own goroutine and returns once every enqueue has completed.
type SyncPublisher struct {
	subscriberList
}

func NewSyncPublisher() *SyncPublisher { return &SyncPublisher{} }

func (p *SyncPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *SyncPublisher) Publish(tag string, e Event) error {
	for _, s := range p.snapshot() {
		s.Enqueue(tag, e)
	}
	return nil
}

type asyncJob struct {
	tag   string
	event Event
}

// AsyncPublisher hands the event to a dedicated dispatch goroutine and
// returns immediately; Publish only blocks if that goroutine's backlog is
// full.
type AsyncPublisher struct {
	subscriberList

	jobs chan asyncJob
	done chan struct{}
	wg   sync.WaitGroup
}

func NewAsyncPublisher() *AsyncPublisher {
	p := &AsyncPublisher{
		jobs: make(chan asyncJob, 256),
		done: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

func (p *AsyncPublisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			for _, s := range p.snapshot() {
				s.Enqueue(job.tag, job.event)
			}
		case <-p.done:
			for {
				select {
				case job := <-p.jobs:
					for _, s := range p.snapshot() {
						s.Enqueue(job.tag, job.event)
					}
				default:
					return
				}
			}
		}
	}
}

func (p *AsyncPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *AsyncPublisher) Publish(tag string, e Event) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.jobs <- asyncJob{tag: tag, event: e}:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// Close stops the dispatch goroutine once its backlog has drained.
func (p *AsyncPublisher) Close() {
	close(p.done)
	p.wg.Wait()
}

type batchedPublish struct {
	tag   string
	event Event
}

// BatchPublisher buffers events and dispatches them n at a time. Flush
// dispatches whatever remains short of a full batch; Shutdown discards the
// remainder instead of flushing it — a deliberate contract, not an
// oversight.
type BatchPublisher struct {
	subscriberList

	mu       sync.Mutex
	n        int
	buffered []batchedPublish
}

func NewBatchPublisher(n int) *BatchPublisher {
	return &BatchPublisher{n: n}
}

func (p *BatchPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *BatchPublisher) Publish(tag string, e Event) error {
	p.mu.Lock()
	p.buffered = append(p.buffered, batchedPublish{tag: tag, event: e})
	var toFlush []batchedPublish
	if len(p.buffered) >= p.n {
		toFlush = p.buffered[:p.n:p.n]
		p.buffered = append([]batchedPublish(nil), p.buffered[p.n:]...)
	}
	p.mu.Unlock()

	if toFlush != nil {
		p.dispatch(toFlush)
	}
	return nil
}

// Flush dispatches whatever is currently buffered, short batch or not.
func (p *BatchPublisher) Flush() {
	p.mu.Lock()
	toFlush := p.buffered
	p.buffered = nil
	p.mu.Unlock()

	if len(toFlush) > 0 {
		p.dispatch(toFlush)
	}
}

// Shutdown discards any buffered events without dispatching them.
func (p *BatchPublisher) Shutdown() {
	p.mu.Lock()
	p.buffered = nil
	p.mu.Unlock()
}

func (p *BatchPublisher) dispatch(items []batchedPublish) {
	subs := p.snapshot()
	for _, item := range items {
		for _, s := range subs {
			s.Enqueue(item.tag, item.event)
		}
	}
}

// Predicate gates delivery for a ConditionalPublisher. An error return
// propagates directly to the caller of Publish.
type Predicate func(Event) (bool, error)

// ConditionalPublisher dispatches an event only when its predicate
// evaluates true at the moment of publish.
type ConditionalPublisher struct {
	subscriberList
	predicate Predicate
}

func NewConditionalPublisher(predicate Predicate) *ConditionalPublisher {
	return &ConditionalPublisher{predicate: predicate}
}

func (p *ConditionalPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *ConditionalPublisher) Publish(tag string, e Event) error {
	ok, err := p.predicate(e)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, s := range p.snapshot() {
		s.Enqueue(tag, e)
	}
	return nil
}

// DelayedPublisher schedules a one-shot delivery after a fixed delay and
// returns a Future the caller may cancel before it fires.
type DelayedPublisher struct {
	subscriberList
	delay time.Duration
}

func NewDelayedPublisher(delay time.Duration) *DelayedPublisher {
	return &DelayedPublisher{delay: delay}
}

func (p *DelayedPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *DelayedPublisher) Publish(tag string, e Event) Future {
	f := &futureImpl{}
	timer := time.AfterFunc(p.delay, func() {
		if f.IsCancelled() {
			return
		}
		for _, s := range p.snapshot() {
			s.Enqueue(tag, e)
		}
		f.markDone()
	})
	f.stop = func() { timer.Stop() }
	return f
}

type periodicSchedule struct {
	stopOnce sync.Once
	stop     chan struct{}
	future   *futureImpl
}

// PeriodicPublisher schedules recurring delivery keyed by an id; a second
// Publish under the same id cancels and replaces whatever schedule was
// running under that id.
type PeriodicPublisher struct {
	subscriberList

	mu        sync.Mutex
	schedules map[string]*periodicSchedule
}

func NewPeriodicPublisher() *PeriodicPublisher {
	return &PeriodicPublisher{schedules: make(map[string]*periodicSchedule)}
}

func (p *PeriodicPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *PeriodicPublisher) Publish(tag string, e Event, id string, period time.Duration) Future {
	p.mu.Lock()
	if old, ok := p.schedules[id]; ok {
		old.future.Cancel()
	}

	sched := &periodicSchedule{stop: make(chan struct{}), future: &futureImpl{}}
	sched.future.stop = func() {
		sched.stopOnce.Do(func() { close(sched.stop) })
	}
	p.schedules[id] = sched
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, s := range p.snapshot() {
					s.Enqueue(tag, e)
				}
			case <-sched.stop:
				return
			}
		}
	}()

	return sched.future
}

// SilentTimeoutPublisher dispatches asynchronously; the returned future
// always completes, and a delivery that outlasts the timeout is abandoned
// without surfacing an error.
type SilentTimeoutPublisher struct {
	subscriberList
	timeout time.Duration
}

func NewSilentTimeoutPublisher(timeout time.Duration) *SilentTimeoutPublisher {
	return &SilentTimeoutPublisher{timeout: timeout}
}

func (p *SilentTimeoutPublisher) AddSubscriber(s Subscriber) { p.add(s) }

func (p *SilentTimeoutPublisher) Publish(tag string, e Event) Future {
	f := &futureImpl{}
	go func() {
		defer f.markDone()
		delivered := make(chan struct{})
		go func() {
			for _, s := range p.snapshot() {
				s.Enqueue(tag, e)
			}
			close(delivered)
		}()
		select {
		case <-delivered:
		case <-time.After(p.timeout):
		}
	}()
	return f
}

var (
	_ Publisher = (*SyncPublisher)(nil)
	_ Publisher = (*AsyncPublisher)(nil)
	_ Publisher = (*BatchPublisher)(nil)
	_ Publisher = (*ConditionalPublisher)(nil)
)
