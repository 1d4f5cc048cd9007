// Package statusstore persists the status collection and the disconnect
// writes armed against live hub connections.
package statusstore

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

var ErrNotFound = errors.New("statusstore: not found")

// Store is shared by every hub instance.
//
// A lease is identified by (ConnID, UID). Removal is atomic: whichever of
// Release or PopExpired removes a lease is the only caller to see it, so an
// armed write fires at most once.
type Store interface {
	// Put stores rec unless the stored record for uid has a later LastSeen.
	// It reports whether rec was stored.
	Put(ctx context.Context, uid string, rec presence.Record) (bool, error)
	Get(ctx context.Context, uid string) (presence.Record, error)
	All(ctx context.Context) (map[string]presence.Record, error)

	// Arm stores or replaces the lease for (l.ConnID, l.UID).
	Arm(ctx context.Context, l domain.Lease) error
	Disarm(ctx context.Context, connID, uid string) error

	// Release removes and returns the leases connID holds for uids.
	Release(ctx context.Context, connID string, uids []string) ([]domain.Lease, error)

	// RenewLeases pushes the expiry of existing leases out to expiresAt.
	// Leases that were already removed stay removed.
	RenewLeases(ctx context.Context, connID string, uids []string, expiresAt time.Time) error

	// PopExpired removes and returns every lease that expired before now.
	PopExpired(ctx context.Context, now time.Time) ([]domain.Lease, error)

	Ping(ctx context.Context) error
	Close() error
}

func leaseKey(connID, uid string) string {
	return connID + "|" + uid
}
