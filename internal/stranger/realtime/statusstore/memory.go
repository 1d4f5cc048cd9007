package statusstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// Memory is a single-instance Store.
type Memory struct {
	mu      sync.Mutex
	records map[string]presence.Record
	leases  map[string]domain.Lease
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]presence.Record),
		leases:  make(map[string]domain.Lease),
	}
}

func (m *Memory) Put(_ context.Context, uid string, rec presence.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.records[uid]; ok && cur.LastSeen.After(rec.LastSeen) {
		return false, nil
	}
	m.records[uid] = rec
	return true, nil
}

func (m *Memory) Get(_ context.Context, uid string) (presence.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[uid]
	if !ok {
		return presence.Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) All(context.Context) (map[string]presence.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.records), nil
}

func (m *Memory) Arm(_ context.Context, l domain.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[leaseKey(l.ConnID, l.UID)] = l
	return nil
}

func (m *Memory) Disarm(_ context.Context, connID, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leases, leaseKey(connID, uid))
	return nil
}

func (m *Memory) Release(_ context.Context, connID string, uids []string) ([]domain.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Lease
	for _, uid := range uids {
		k := leaseKey(connID, uid)
		if l, ok := m.leases[k]; ok {
			delete(m.leases, k)
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) RenewLeases(_ context.Context, connID string, uids []string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, uid := range uids {
		k := leaseKey(connID, uid)
		if l, ok := m.leases[k]; ok {
			l.ExpiresAt = expiresAt
			m.leases[k] = l
		}
	}
	return nil
}

func (m *Memory) PopExpired(_ context.Context, now time.Time) ([]domain.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Lease
	for k, l := range m.leases {
		if l.ExpiresAt.Before(now) {
			delete(m.leases, k)
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }
