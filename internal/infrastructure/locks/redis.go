package locks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "lock:"

// DefaultTTL outlives a transaction waiting for its receipt.
const DefaultTTL = 5 * time.Minute

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis shares leases between API instances. A lease expires after TTL if its
// holder never releases it.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}
	return func() {
		// The caller's context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.Client, []string{keyPrefix + key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("lock release failed")
		}
	}, nil
}
