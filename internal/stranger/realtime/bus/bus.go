// Package bus fans status changes out to every hub instance.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

const (
	// RedisChannel is the Pub/Sub channel used by the Redis bus.
	RedisChannel = "stranger:status:changes"

	// NATSSubject is the subject used by the NATS bus.
	NATSSubject = "stranger.status.changes"
)

// Bus delivers every published change to every subscriber, including
// subscribers in the publishing process. Each subscriber sees changes in
// the order the bus received them.
type Bus interface {
	Publish(ctx context.Context, c domain.StatusChange) error

	// Subscribe registers fn. fn runs on a bus goroutine and must not block.
	Subscribe(ctx context.Context, fn func(domain.StatusChange)) (presence.Unsubscribe, error)

	Close() error
}

func encode(c domain.StatusChange) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("bus: encode change: %w", err)
	}
	return b, nil
}

func decode(b []byte) (domain.StatusChange, error) {
	var c domain.StatusChange
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("bus: decode change: %w", err)
	}
	if c.UID == "" {
		return c, fmt.Errorf("bus: change without uid")
	}
	return c, nil
}
