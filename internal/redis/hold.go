package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSlotHeld = errors.New("slot is already held")
)

// HoldStore issues short-lived exclusive reservation holds on
// (staff, interval) keys. Holds survive process restarts and expire on their
// own via Redis TTLs, so no sweeper is needed for them; an expired hold is
// simply absent.
type HoldStore struct {
	client *redis.Client
}

func NewHoldStore(client *redis.Client) *HoldStore {
	return &HoldStore{client: client}
}

// acquireScript sets the hold and the token->key reverse mapping atomically.
var acquireScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
  redis.call("SET", KEYS[2], KEYS[1], "PX", ARGV[2])
  return 1
end
return 0
`)

// releaseScript deletes the hold only if the token still owns it, then drops
// the reverse mapping. Safe to run for expired or already-released tokens.
var releaseScript = redis.NewScript(`
local holdKey = redis.call("GET", KEYS[1])
if not holdKey then
  return 0
end
if redis.call("GET", holdKey) == ARGV[1] then
  redis.call("DEL", holdKey)
end
redis.call("DEL", KEYS[1])
return 1
`)

// Acquire claims an exclusive hold on the interval for ttl. Exactly one of
// two concurrent calls for the same (staff, start, end) succeeds; the other
// gets ErrSlotHeld.
func (s *HoldStore) Acquire(ctx context.Context, staffID uuid.UUID, start, end time.Time, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	keys := []string{holdKey(staffID, start, end), tokenKey(token)}

	ok, err := acquireScript.Run(ctx, s.client, keys, token, ttl.Milliseconds()).Int()
	if err != nil {
		return "", fmt.Errorf("acquire hold: %w", err)
	}
	if ok == 0 {
		return "", ErrSlotHeld
	}
	return token, nil
}

// Release frees the hold identified by token. Idempotent: releasing an
// expired or unknown token is a no-op.
func (s *HoldStore) Release(ctx context.Context, token string) error {
	_, err := releaseScript.Run(ctx, s.client, []string{tokenKey(token)}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}

// Held reports whether an unexpired hold exists for the interval.
func (s *HoldStore) Held(ctx context.Context, staffID uuid.UUID, start, end time.Time) (bool, error) {
	n, err := s.client.Exists(ctx, holdKey(staffID, start, end)).Result()
	if err != nil {
		return false, fmt.Errorf("check hold: %w", err)
	}
	return n > 0, nil
}

func holdKey(staffID uuid.UUID, start, end time.Time) string {
	return fmt.Sprintf("hold:%s:%d:%d", staffID, start.Unix(), end.Unix())
}

func tokenKey(token string) string {
	return "hold:token:" + token
}
