package firmata

import (
	"sync"
	"time"
)

// dispatcherQueueCapacity is the bounded "undelivered messages" queue size.
const dispatcherQueueCapacity = 100

// MessagePredicate reports whether msg satisfies a reply-wait.
type MessagePredicate func(msg Message) bool

// Dispatcher fans each Framer-decoded message out to (a) the reply-wait
// mechanism, (b) typed listeners, (c) a generic message-received
// listener, and retains a bounded queue of undelivered messages observed
// by reply-wait. All Dispatcher state is guarded by mu; the Framer's
// receive goroutine is the only writer, callers only read via Wait.
type Dispatcher struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue []Message

	onAny    func(Message)
	analog   observerSet
	digital  observerSet
	i2c      observerSet
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		analog:  observerSet{},
		digital: observerSet{},
		i2c:     observerSet{},
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// SetMessageListener installs the generic message-received listener.
// Passing nil removes it.
func (d *Dispatcher) SetMessageListener(fn func(Message)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onAny = fn
}

func (d *Dispatcher) observerSetFor(kind MessageKind) observerSet {
	switch kind {
	case KindAnalogState:
		return d.analog
	case KindDigitalPortState:
		return d.digital
	case KindI2CReply:
		return d.i2c
	default:
		return nil
	}
}

// Subscribe registers observer for long-lived notification of messages of
// the given kind (analog, digital-port, or I2C-reply).
func (d *Dispatcher) Subscribe(kind MessageKind, observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s := d.observerSetFor(kind); s != nil {
		s.subscribe(observer)
	}
}

func (d *Dispatcher) Unsubscribe(kind MessageKind, observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s := d.observerSetFor(kind); s != nil {
		s.unsubscribe(observer)
	}
}

// Dispatch is called by the Framer's onMessage callback for every fully
// decoded message, in arrival order.
func (d *Dispatcher) Dispatch(msg Message) {
	d.mu.Lock()
	onAny := d.onAny
	// Snapshot the observers into a slice while still holding the lock:
	// Subscribe/Unsubscribe mutate the same map, and notifying from a
	// live map after unlocking would race a concurrent subscription
	// change.
	listeners := d.observerSetFor(msg.Kind).snapshot()
	d.enqueueLocked(msg)
	d.cond.Broadcast()
	d.mu.Unlock()

	if onAny != nil {
		onAny(msg)
	}
	for _, o := range listeners {
		o.Notify(msg)
	}
}

// enqueueLocked appends msg to the bounded queue, evicting the oldest
// (by timestamp) entry when full. mu must be held.
func (d *Dispatcher) enqueueLocked(msg Message) {
	if len(d.queue) < dispatcherQueueCapacity {
		d.queue = append(d.queue, msg)
		return
	}

	staleBefore := msg.Timestamp
	evictIdx := -1
	for i, m := range d.queue {
		if m.Timestamp.Before(staleBefore) {
			evictIdx = i
			break
		}
	}
	if evictIdx < 0 {
		evictIdx = 0
	}
	d.queue = append(d.queue[:evictIdx], d.queue[evictIdx+1:]...)
	d.queue = append(d.queue, msg)
}

// Clear drops every queued message. Used by Session.Clear.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = nil
	d.cond.Broadcast()
}

// Wait atomically scans the queue for the first message satisfying pred,
// removing and returning it. If none is queued yet, it blocks until a
// matching message is dispatched or timeout elapses (timeout<=0 means
// block forever). A Wait posted before a matching message arrives is
// guaranteed to observe it: the scan and the blocking wait happen under
// the same lock the Dispatcher broadcasts under, so there is no
// lost-wakeup window.
func (d *Dispatcher) Wait(pred MessagePredicate, timeout time.Duration) (Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if msg, ok := d.takeMatchLocked(pred); ok {
		return msg, nil
	}

	if timeout <= 0 {
		for {
			d.cond.Wait()
			if msg, ok := d.takeMatchLocked(pred); ok {
				return msg, nil
			}
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Message{}, &TimeoutError{}
		}

		woke := make(chan struct{})
		timer := time.AfterFunc(remaining, func() {
			d.mu.Lock()
			d.cond.Broadcast()
			d.mu.Unlock()
			close(woke)
		})

		d.cond.Wait()
		if msg, ok := d.takeMatchLocked(pred); ok {
			timer.Stop()
			return msg, nil
		}
		if time.Now().After(deadline) || time.Now().Equal(deadline) {
			timer.Stop()
			return Message{}, &TimeoutError{}
		}
	}
}

func (d *Dispatcher) takeMatchLocked(pred MessagePredicate) (Message, bool) {
	for i, m := range d.queue {
		if pred(m) {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return m, true
		}
	}
	return Message{}, false
}
