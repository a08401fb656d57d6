package firmata

// Observer receives a Message whenever an Observable it is subscribed to
// emits one, specialized to the Message tagged union so typed listeners
// never need a type assertion.
type Observer interface {
	Notify(msg Message)
}

// Observable is anything a caller can Subscribe an Observer to for
// long-lived notification.
type Observable interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
}

// ObserverFunc adapts a plain function to the Observer interface. Func
// values are not comparable, so an ObserverFunc can be subscribed but
// Unsubscribe does not remove it.
type ObserverFunc func(msg Message)

func (f ObserverFunc) Notify(msg Message) { f(msg) }

// observerSet holds the observers of one typed subscription kind in the
// Dispatcher. Each observer is keyed by its own entry pointer, so
// observers of a non-hashable type such as ObserverFunc can be stored.
type observerSet map[*observerEntry]struct{}

type observerEntry struct{ o Observer }

func (s observerSet) subscribe(o Observer) {
	s[&observerEntry{o: o}] = struct{}{}
}

// unsubscribe removes every entry equal to o. An ObserverFunc cannot be
// compared and is left subscribed.
func (s observerSet) unsubscribe(o Observer) {
	if _, isFunc := o.(ObserverFunc); isFunc || o == nil {
		return
	}
	for e := range s {
		if e.o == o {
			delete(s, e)
		}
	}
}

func (s observerSet) notifyAll(msg Message) {
	for e := range s {
		e.o.Notify(msg)
	}
}

// snapshot copies the current observers into a slice, for callers that
// must notify outside the lock guarding the set (concurrent
// Subscribe/Unsubscribe must not race a live map iteration).
func (s observerSet) snapshot() []Observer {
	if len(s) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(s))
	for e := range s {
		out = append(out, e.o)
	}
	return out
}
