package presence

import "sync"

// Monitor watches a backend's connection state and fires a callback on every
// false-to-true transition. The first true counts as a transition.
type Monitor struct {
	mu        sync.Mutex
	connected bool
	unsub     Unsubscribe
	closeOnce sync.Once
}

// WatchConnection subscribes to backend connectivity and calls onConnect once
// per connect. Disconnects are only recorded; offline handling belongs to the
// backend's armed write and to explicit teardown.
func WatchConnection(backend Backend, onConnect func()) *Monitor {
	m := &Monitor{}
	m.unsub = backend.SubscribeConnectionState(func(connected bool) {
		if m.observe(connected) {
			onConnect()
		}
	})
	return m
}

// observe records the new state and reports whether it is a rising edge.
func (m *Monitor) observe(connected bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rising := connected && !m.connected
	m.connected = connected
	return rising
}

// Connected reports the last observed state.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Close stops delivery. Safe to call more than once.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		if m.unsub != nil {
			m.unsub()
		}
	})
}
