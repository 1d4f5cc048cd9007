package statusstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/presence"
)

// DefaultRedisPrefix namespaces every key the Redis store touches.
const DefaultRedisPrefix = "stranger"

// Stores a record unless the stored one was seen later. Returns 1 if stored.
// KEYS[1] = status hash, KEYS[2] = seen hash, ARGV = uid, record, lastSeen in unix us
const luaPut = `
local seen = redis.call("HGET", KEYS[2], ARGV[1])
if seen and tonumber(seen) > tonumber(ARGV[3]) then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("HSET", KEYS[2], ARGV[1], ARGV[3])
return 1
`

// Removes and returns every armed write whose lease score is below now.
// KEYS[1] = lease zset, KEYS[2] = armed hash, ARGV[1] = now in unix ms
const luaPopExpired = `
local leases = KEYS[1]
local armed  = KEYS[2]
local victims = redis.call("ZRANGEBYSCORE", leases, "-inf", "(" .. ARGV[1])
local out = {}
for _, k in ipairs(victims) do
  local v = redis.call("HGET", armed, k)
  redis.call("ZREM", leases, k)
  redis.call("HDEL", armed, k)
  if v then
    table.insert(out, v)
  end
end
return out
`

// Removes and returns the named armed writes.
// KEYS[1] = lease zset, KEYS[2] = armed hash, ARGV = lease keys
const luaRelease = `
local leases = KEYS[1]
local armed  = KEYS[2]
local out = {}
for _, k in ipairs(ARGV) do
  local v = redis.call("HGET", armed, k)
  if v then
    redis.call("HDEL", armed, k)
    table.insert(out, v)
  end
  redis.call("ZREM", leases, k)
end
return out
`

var (
	putScript        = redis.NewScript(luaPut)
	popExpiredScript = redis.NewScript(luaPopExpired)
	releaseScript    = redis.NewScript(luaRelease)
)

// Redis is a Store shared by every hub instance. Records live in the hash
// <prefix>:status with their LastSeen in <prefix>:seen, armed writes in
// <prefix>:armed, and lease expiries in the sorted set <prefix>:leases.
type Redis struct {
	rdb    redis.UniversalClient
	status string
	seen   string
	armed  string
	leases string
}

var _ Store = (*Redis)(nil)

// NewRedis wraps rdb. The caller keeps ownership of rdb; Close closes it.
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{
		rdb:    rdb,
		status: prefix + ":status",
		seen:   prefix + ":seen",
		armed:  prefix + ":armed",
		leases: prefix + ":leases",
	}
}

// OpenRedis connects to url, e.g. redis://localhost:6379/0.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("statusstore: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("statusstore: ping redis: %w", err)
	}
	return NewRedis(rdb, prefix), nil
}

type leaseDoc struct {
	ConnID    string          `json:"conn_id"`
	UID       string          `json:"uid"`
	Record    presence.Record `json:"record"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (r *Redis) Put(ctx context.Context, uid string, rec presence.Record) (bool, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	n, err := putScript.Run(ctx, r.rdb, []string{r.status, r.seen}, uid, b, rec.LastSeen.UnixMicro()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Redis) Get(ctx context.Context, uid string) (presence.Record, error) {
	b, err := r.rdb.HGet(ctx, r.status, uid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return presence.Record{}, ErrNotFound
		}
		return presence.Record{}, err
	}
	var rec presence.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return presence.Record{}, fmt.Errorf("statusstore: decode %s: %w", uid, err)
	}
	return rec, nil
}

func (r *Redis) All(ctx context.Context) (map[string]presence.Record, error) {
	raw, err := r.rdb.HGetAll(ctx, r.status).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]presence.Record, len(raw))
	for uid, v := range raw {
		var rec presence.Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("statusstore: decode %s: %w", uid, err)
		}
		out[uid] = rec
	}
	return out, nil
}

func (r *Redis) Arm(ctx context.Context, l domain.Lease) error {
	b, err := json.Marshal(leaseDoc(l))
	if err != nil {
		return err
	}
	k := leaseKey(l.ConnID, l.UID)

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.armed, k, b)
	pipe.ZAdd(ctx, r.leases, redis.Z{Score: float64(l.ExpiresAt.UnixMilli()), Member: k})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Disarm(ctx context.Context, connID, uid string) error {
	k := leaseKey(connID, uid)

	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, r.armed, k)
	pipe.ZRem(ctx, r.leases, k)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Release(ctx context.Context, connID string, uids []string) ([]domain.Lease, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = leaseKey(connID, uid)
	}

	raw, err := releaseScript.Run(ctx, r.rdb, []string{r.leases, r.armed}, args...).StringSlice()
	if err != nil {
		return nil, err
	}
	return decodeLeases(raw)
}

func (r *Redis) RenewLeases(ctx context.Context, connID string, uids []string, expiresAt time.Time) error {
	if len(uids) == 0 {
		return nil
	}
	members := make([]redis.Z, len(uids))
	for i, uid := range uids {
		members[i] = redis.Z{Score: float64(expiresAt.UnixMilli()), Member: leaseKey(connID, uid)}
	}
	return r.rdb.ZAddXX(ctx, r.leases, members...).Err()
}

func (r *Redis) PopExpired(ctx context.Context, now time.Time) ([]domain.Lease, error) {
	raw, err := popExpiredScript.Run(ctx, r.rdb, []string{r.leases, r.armed}, now.UnixMilli()).StringSlice()
	if err != nil {
		return nil, err
	}
	return decodeLeases(raw)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func decodeLeases(raw []string) ([]domain.Lease, error) {
	out := make([]domain.Lease, 0, len(raw))
	for _, v := range raw {
		var doc leaseDoc
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return nil, fmt.Errorf("statusstore: decode lease: %w", err)
		}
		out = append(out, domain.Lease(doc))
	}
	return out, nil
}
