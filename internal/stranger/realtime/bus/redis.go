package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// Redis is a Bus over Redis Pub/Sub.
type Redis struct {
	rdb     redis.UniversalClient
	channel string
	logger  *slog.Logger
	owned   bool
}

var _ Bus = (*Redis)(nil)

// NewRedis publishes on channel through rdb. Close leaves rdb open.
func NewRedis(rdb redis.UniversalClient, channel string, logger *slog.Logger) *Redis {
	if channel == "" {
		channel = RedisChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{rdb: rdb, channel: channel, logger: logger.With("component", "bus", "driver", "redis")}
}

// OpenRedis connects to url and owns the connection.
func OpenRedis(ctx context.Context, url string, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("bus: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("bus: ping redis: %w", err)
	}
	b := NewRedis(rdb, RedisChannel, logger)
	b.owned = true
	return b, nil
}

func (b *Redis) Publish(ctx context.Context, c domain.StatusChange) error {
	payload, err := encode(c)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *Redis) Subscribe(ctx context.Context, fn func(domain.StatusChange)) (presence.Unsubscribe, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)

	// Wait for the subscription to be confirmed so no change published
	// after Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("bus: subscribe %s: %w", b.channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			c, err := decode([]byte(msg.Payload))
			if err != nil {
				b.logger.Warn("dropping malformed change", "error", err)
				continue
			}
			fn(c)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
			<-done
		})
	}, nil
}

func (b *Redis) Close() error {
	if b.owned {
		return b.rdb.Close()
	}
	return nil
}
