package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2beens/marathon/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix = "marathon-guard||"
	redisScanCount = 100
)

// the claim value is compared first, so a claim taken over after its lease
// expired is never touched by the previous holder
var (
	markSentScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2])
	return 1
end
return 0
`)
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// RedisGuard keeps claims as plain keys. Pending claims carry the lease as TTL,
// so a crashed sweep frees them even without reconciliation. Sent keys never expire.
// Every pending claim holds a random token; MarkSent and Release only act on the
// claims this guard took itself.
type RedisGuard struct {
	rdb      *redis.Client
	lease    time.Duration
	now      func() time.Time
	newToken func() string

	mutex sync.Mutex
	held  map[string]string
}

func NewRedisGuard(rdb *redis.Client, lease time.Duration) *RedisGuard {
	return &RedisGuard{
		rdb:      rdb,
		lease:    lease,
		now:      time.Now,
		newToken: uuid.NewString,
		held:     make(map[string]string),
	}
}

func redisKey(subjectID, triggerKey string) string {
	return redisKeyPrefix + subjectID + "||" + triggerKey
}

func redisValue(status string, at time.Time) string {
	return fmt.Sprintf("%s|%d", status, at.Unix())
}

func parseRedisValue(val string) (string, time.Time, error) {
	parts := strings.SplitN(val, "|", 3)
	if len(parts) < 2 {
		return "", time.Time{}, fmt.Errorf("malformed guard value: %s", val)
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed guard timestamp: %w", err)
	}
	return parts[0], time.Unix(unix, 0), nil
}

func (g *RedisGuard) TryClaim(ctx context.Context, subjectID, triggerKey string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.guard.claim")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := redisKey(subjectID, triggerKey)
	value := redisValue(StatusPending, g.now()) + "|" + g.newToken()
	claimed, err := g.rdb.SetNX(ctx, key, value, g.lease).Result()
	if err != nil || !claimed {
		return false, err
	}

	g.mutex.Lock()
	g.held[key] = value
	g.mutex.Unlock()
	return true, nil
}

// takeHeld removes and returns the value of a claim taken by this guard.
func (g *RedisGuard) takeHeld(key string) (string, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	value, ok := g.held[key]
	delete(g.held, key)
	return value, ok
}

func (g *RedisGuard) MarkSent(ctx context.Context, subjectID, triggerKey string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.guard.marksent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := redisKey(subjectID, triggerKey)
	claimValue, ok := g.takeHeld(key)
	if !ok {
		return ErrClaimNotHeld
	}

	// plain SET drops the lease TTL
	updated, err := markSentScript.Run(ctx, g.rdb, []string{key}, claimValue, redisValue(StatusSent, g.now())).Int64()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrClaimNotHeld
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, subjectID, triggerKey string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.guard.release")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := redisKey(subjectID, triggerKey)
	claimValue, ok := g.takeHeld(key)
	if !ok {
		return ErrClaimNotHeld
	}

	deleted, err := releaseScript.Run(ctx, g.rdb, []string{key}, claimValue).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrClaimNotHeld
	}
	return nil
}

func (g *RedisGuard) Sent(ctx context.Context, subjectID, triggerKey string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.guard.sent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	val, err := g.rdb.Get(ctx, redisKey(subjectID, triggerKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	status, _, err := parseRedisValue(val)
	if err != nil {
		return false, err
	}
	return status == StatusSent, nil
}

func (g *RedisGuard) ReconcileStale(ctx context.Context, olderThan time.Duration) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.guard.reconcile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cutoff := g.now().Add(-olderThan)
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := g.rdb.Scan(ctx, cursor, redisKeyPrefix+"*", redisScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("scan guard keys: %w", err)
		}

		for _, key := range keys {
			val, err := g.rdb.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return removed, err
			}
			status, claimedAt, err := parseRedisValue(val)
			if err != nil {
				log.Warnf("guard reconcile, skip key %s: %s", key, err)
				continue
			}
			if status != StatusPending || !claimedAt.Before(cutoff) {
				continue
			}
			// the holder may mark it sent meanwhile, delete only the value just read
			deleted, err := releaseScript.Run(ctx, g.rdb, []string{key}, val).Int64()
			if err != nil {
				return removed, err
			}
			removed += deleted
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}
