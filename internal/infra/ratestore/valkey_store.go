package ratestore

import (
	"context"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/fishcast/internal/domain/cache"
	"github.com/yanqian/fishcast/internal/domain/ratelimit"
)

// incrementIfBelow counts a request only while the window is under ARGV[1].
// The key expires ARGV[2] seconds after the window is created.
var incrementIfBelow = valkey.NewLuaScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return 0
end
redis.call('INCR', KEYS[1])
if current == 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// ValkeyStore keeps rate windows as expiring counters. Windows expire on
// their own, so PruneBefore has nothing to do.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a window store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "fishcast"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) IncrementIfBelow(ctx context.Context, key ratelimit.WindowKey, limit int) (bool, error) {
	ttl := int64((key.Length + time.Minute) / time.Second)
	counted, err := incrementIfBelow.Exec(ctx, s.client,
		[]string{s.windowKey(key)},
		[]string{strconv.Itoa(limit), strconv.FormatInt(ttl, 10)},
	).AsInt64()
	if err != nil {
		return false, err
	}
	return counted == 1, nil
}

func (s *ValkeyStore) PruneBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// windowKey quotes each part so IPv6 client ids cannot collide across fields.
func (s *ValkeyStore) windowKey(key ratelimit.WindowKey) string {
	parts := cache.NewKey("rl",
		key.Endpoint,
		key.ClientID,
		strconv.FormatInt(int64(key.Length/time.Second), 10),
		strconv.FormatInt(key.Start.Unix(), 10),
	)
	return s.prefix + ":" + parts.Provider + ":" + parts.Encoded()
}

var _ ratelimit.WindowStore = (*ValkeyStore)(nil)
