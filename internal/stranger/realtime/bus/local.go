package bus

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// Local is an in-process Bus for single-instance deployments. Delivery is
// asynchronous and ordered.
type Local struct {
	serial *presence.Serial
	subs   presence.Fanout[domain.StatusChange]

	mu     sync.Mutex
	closed bool
}

var _ Bus = (*Local)(nil)

func NewLocal() *Local {
	return &Local{serial: presence.NewSerial()}
}

func (b *Local) Publish(ctx context.Context, c domain.StatusChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.serial.Go(func() { b.subs.Emit(c) })
	return nil
}

func (b *Local) Subscribe(_ context.Context, fn func(domain.StatusChange)) (presence.Unsubscribe, error) {
	unsub, _ := b.subs.Add(fn)
	return unsub, nil
}

// Flush blocks until every change published so far has been delivered.
func (b *Local) Flush() {
	done := make(chan struct{})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.serial.Go(func() { close(done) })
	b.mu.Unlock()

	<-done
}

// Close delivers what is queued and stops the dispatcher.
func (b *Local) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.serial.Close()
	return nil
}
