package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// NATS is a Bus over a core NATS subject.
type NATS struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

var _ Bus = (*NATS)(nil)

// OpenNATS connects to url and reconnects forever.
func OpenNATS(url, name string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "bus", "driver", "nats")

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("bus: connect nats: %w", err)
	}
	return &NATS{nc: nc, subject: NATSSubject, logger: logger}, nil
}

func (b *NATS) Publish(_ context.Context, c domain.StatusChange) error {
	payload, err := encode(c)
	if err != nil {
		return err
	}
	return b.nc.Publish(b.subject, payload)
}

func (b *NATS) Subscribe(_ context.Context, fn func(domain.StatusChange)) (presence.Unsubscribe, error) {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		c, err := decode(m.Data)
		if err != nil {
			b.logger.Warn("dropping malformed change", "error", err)
			return
		}
		fn(c)
	})
	if err != nil {
		return nil, fmt.Errorf("bus: subscribe %s: %w", b.subject, err)
	}
	_ = sub.SetPendingLimits(1_000_000, 64*1024*1024)

	// Make sure the server knows about the subscription before returning.
	if err := b.nc.FlushTimeout(3 * time.Second); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("bus: flush subscription: %w", err)
	}

	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *NATS) Close() error {
	return b.nc.Drain()
}
