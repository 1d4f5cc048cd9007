package domain

import (
	"time"

	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// StatusChange is one write to status/<uid>, as carried on the change bus.
type StatusChange struct {
	UID    string          `json:"uid"`
	Record presence.Record `json:"record"`

	// Origin is the hub instance that applied the write.
	Origin string `json:"origin,omitempty"`
}

// Lease ties an armed disconnect write to the hub connection holding it.
// When the connection's instance stops renewing, the lease expires and
// housekeeping fires the armed write.
type Lease struct {
	ConnID    string
	UID       string
	Record    presence.Record
	ExpiresAt time.Time
}
