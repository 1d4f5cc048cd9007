package presence

import "sync"

// Fanout delivers values to a changing set of listeners.
//
// Emit must not be called concurrently with itself; backends serialize their
// notifications (see Serial) and use Fanout for the bookkeeping. Removing a
// listener waits for an in-flight delivery to that listener to finish, so a
// listener must not unsubscribe itself from inside its own callback.
type Fanout[T any] struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]*listener[T]
}

type listener[T any] struct {
	mu     sync.Mutex
	closed bool
	fn     func(T)
}

func (l *listener[T]) deliver(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.fn(v)
}

// Add registers fn and returns its Unsubscribe.
func (f *Fanout[T]) Add(fn func(T)) (Unsubscribe, func(T)) {
	l := &listener[T]{fn: fn}

	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[uint64]*listener[T])
	}
	id := f.next
	f.next++
	f.subs[id] = l
	f.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()

			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()
		})
	}
	return unsub, l.deliver
}

// Emit delivers v to every current listener.
func (f *Fanout[T]) Emit(v T) {
	f.mu.Lock()
	ls := make([]*listener[T], 0, len(f.subs))
	for _, l := range f.subs {
		ls = append(ls, l)
	}
	f.mu.Unlock()

	for _, l := range ls {
		l.deliver(v)
	}
}

// Len returns the number of registered listeners.
func (f *Fanout[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
