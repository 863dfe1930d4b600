package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// SeatHolder is a fast all-or-nothing seat hold in front of the SQL lock
// table. Hold returns the seats already held by another token.
type SeatHolder interface {
	Hold(ctx context.Context, slotID int64, seatIDs []string, token string, ttl time.Duration) ([]string, error)
	Release(ctx context.Context, slotID int64, seatIDs []string, token string) error
}

// holdScript sets every key to the token only when none is held by another
// token. It returns the conflicting keys.
var holdScript = redis.NewScript(`
local taken = {}
for _, key in ipairs(KEYS) do
  local v = redis.call('GET', key)
  if v and v ~= ARGV[1] then
    table.insert(taken, key)
  end
end
if #taken > 0 then
  return taken
end
for _, key in ipairs(KEYS) do
  redis.call('SET', key, ARGV[1], 'PX', ARGV[2])
end
return taken
`)

var releaseScript = redis.NewScript(`
local n = 0
for _, key in ipairs(KEYS) do
  if redis.call('GET', key) == ARGV[1] then
    redis.call('DEL', key)
    n = n + 1
  end
end
return n
`)

type RedisSeatHolder struct {
	Client *redis.Client
}

func seatKey(slotID int64, seatID string) string {
	return fmt.Sprintf("seatlock:%d:%s", slotID, seatID)
}

func seatKeys(slotID int64, seatIDs []string) []string {
	keys := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		keys[i] = seatKey(slotID, id)
	}
	return keys
}

func (h RedisSeatHolder) Hold(ctx context.Context, slotID int64, seatIDs []string, token string, ttl time.Duration) ([]string, error) {
	res, err := holdScript.Run(ctx, h.Client, seatKeys(slotID, seatIDs), token, ttl.Milliseconds()).Result()
	if err != nil {
		return nil, err
	}
	raw, _ := res.([]interface{})
	prefix := seatKey(slotID, "")
	conflicts := make([]string, 0, len(raw))
	for _, v := range raw {
		if key, ok := v.(string); ok {
			conflicts = append(conflicts, strings.TrimPrefix(key, prefix))
		}
	}
	return conflicts, nil
}

func (h RedisSeatHolder) Release(ctx context.Context, slotID int64, seatIDs []string, token string) error {
	return releaseScript.Run(ctx, h.Client, seatKeys(slotID, seatIDs), token).Err()
}
