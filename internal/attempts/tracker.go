// Package attempts records failed login attempts per identifier and
// evaluates the lockout threshold over a sliding window.
package attempts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAttemptsUnavailable indicates the attempt-log backend is unreachable.
var ErrAttemptsUnavailable = errors.New("attempt log backend unavailable")

// reserveAttemptScript trims rows that have aged out of the window,
// counts what remains, and records the new attempt row, all in one
// atomic step. The reply is {count-before-this-attempt, locked}.
// Evaluating the threshold and writing the row in the same script closes
// the check-then-record race: of N concurrent logins contending for the
// last admission slot, exactly one can observe a below-threshold count.
const reserveAttemptScript = `
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local count = redis.call("ZCARD", KEYS[1])
redis.call("ZADD", KEYS[1], ARGV[2], ARGV[3])
redis.call("EXPIRE", KEYS[1], ARGV[4])
local max = tonumber(ARGV[5])
if max > 0 and count >= max then
	return {count, 1}
end
return {count, 0}
`

var reserveAttemptLua = redis.NewScript(reserveAttemptScript)

// Tracker is a Redis-backed failed-attempt log. Each identifier maps to a
// sorted set whose members are individual attempt rows scored by unix
// time. The window is evaluated at read time, so lockout state is always
// consistent with the current clock without a background expiry job.
type Tracker struct {
	redis  redis.UniversalClient
	prefix string
}

// NewTracker creates a Tracker. prefix sets the Redis key namespace.
func NewTracker(redisClient redis.UniversalClient, prefix string) *Tracker {
	if prefix == "" {
		prefix = "ala"
	}
	return &Tracker{redis: redisClient, prefix: prefix}
}

func (t *Tracker) key(identifier string) string {
	return t.prefix + ":" + identifier
}

// RecordFailure appends one attempt row for the identifier. The member
// encodes timestamp and source IP plus a unique suffix so concurrent
// failures in the same instant never collapse into one row. Rows older
// than the window are trimmed opportunistically and the key expires after
// a full quiet window.
func (t *Tracker) RecordFailure(ctx context.Context, identifier, sourceIP string, now time.Time, window time.Duration) error {
	if identifier == "" {
		return nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + sourceIP + ":" + uuid.NewString()
	key := t.key(identifier)

	_, err := t.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: member})
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-window).Unix()-1, 10))
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAttemptsUnavailable, err)
	}

	return nil
}

// Reserve atomically evaluates the lockout threshold and records the
// attempt row for the identifier. It returns the number of recent
// failures observed before this attempt, whether that count already
// meets maxAttempts, and the member under which the row was recorded.
// The row always lands: a locked rejection keeps the identifier locked,
// and an admitted attempt holds its slot so concurrent logins cannot
// slip past the threshold together. Callers [Release] the row when the
// attempt turns out not to be a credential failure.
func (t *Tracker) Reserve(ctx context.Context, identifier, sourceIP string, now time.Time, window time.Duration, maxAttempts int) (int, bool, string, error) {
	if identifier == "" {
		return 0, false, "", nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + sourceIP + ":" + uuid.NewString()
	ttl := int64(window / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	reply, err := reserveAttemptLua.Run(
		ctx,
		t.redis,
		[]string{t.key(identifier)},
		strconv.FormatInt(now.Add(-window).Unix()-1, 10),
		now.Unix(),
		member,
		ttl,
		maxAttempts,
	).Int64Slice()
	if err != nil {
		return 0, false, "", fmt.Errorf("%w: %v", ErrAttemptsUnavailable, err)
	}
	if len(reply) != 2 {
		return 0, false, "", fmt.Errorf("%w: unexpected reserve reply", ErrAttemptsUnavailable)
	}

	return int(reply[0]), reply[1] == 1, member, nil
}

// Release removes a previously reserved attempt row. Used for rejections
// that are not credential failures, such as a failed CAPTCHA challenge.
func (t *Tracker) Release(ctx context.Context, identifier, member string) error {
	if identifier == "" || member == "" {
		return nil
	}

	if err := t.redis.ZRem(ctx, t.key(identifier), member).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAttemptsUnavailable, err)
	}
	return nil
}

// CountRecent returns the number of attempt rows for the identifier with
// timestamps within [now - window, now].
func (t *Tracker) CountRecent(ctx context.Context, identifier string, now time.Time, window time.Duration) (int, error) {
	if identifier == "" {
		return 0, nil
	}

	count, err := t.redis.ZCount(
		ctx,
		t.key(identifier),
		strconv.FormatInt(now.Add(-window).Unix(), 10),
		strconv.FormatInt(now.Unix(), 10),
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrAttemptsUnavailable, err)
	}

	return int(count), nil
}

// IsLocked reports whether the identifier has reached maxAttempts recent
// failures.
func (t *Tracker) IsLocked(ctx context.Context, identifier string, now time.Time, window time.Duration, maxAttempts int) (bool, error) {
	if maxAttempts <= 0 {
		return false, nil
	}

	count, err := t.CountRecent(ctx, identifier, now, window)
	if err != nil {
		return false, err
	}
	return count >= maxAttempts, nil
}

// Clear deletes all attempt rows for the identifier. Called only after a
// successful login.
func (t *Tracker) Clear(ctx context.Context, identifier string) error {
	if identifier == "" {
		return nil
	}

	if err := t.redis.Del(ctx, t.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAttemptsUnavailable, err)
	}
	return nil
}
