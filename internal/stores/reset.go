// Package stores contains the Redis-backed credential stores used by the
// engine.
package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetRecordVersionV1 = 1

var (
	// ErrResetNotFound covers unknown, expired, replaced, and already
	// consumed tokens — indistinguishable by design.
	ErrResetNotFound = errors.New("reset token not found")
	// ErrResetUnavailable indicates the reset backend is unreachable.
	ErrResetUnavailable = errors.New("reset store unavailable")
)

// ResetTokenRecord is the persisted state of one issued token.
type ResetTokenRecord struct {
	UserID    string
	ExpiresAt int64
}

// upsertResetScript replaces any prior token for the user in one atomic
// step, enforcing the at-most-one-active-token-per-user invariant. The
// user pointer key tracks the current token hash so the previous token key
// can be deleted on replacement.
//
// KEYS[1] = user pointer key
// ARGV[1] = token key prefix, ARGV[2] = token hash (hex),
// ARGV[3] = encoded record, ARGV[4] = ttl in milliseconds
const upsertResetScript = `
local prior = redis.call("GET", KEYS[1])
if prior then
  redis.call("DEL", ARGV[1] .. prior)
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[4])
redis.call("SET", ARGV[1] .. ARGV[2], ARGV[3], "PX", ARGV[4])
return 1
`

var upsertResetLua = redis.NewScript(upsertResetScript)

// clearPointerScript removes the user pointer only if it still references
// the consumed token.
const clearPointerScript = `
local cur = redis.call("GET", KEYS[1])
if cur == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`

var clearPointerLua = redis.NewScript(clearPointerScript)

// ResetTokenStore persists password-reset tokens keyed by token hash, with
// a per-user pointer enforcing single-active-token semantics. Plaintext
// token values never reach Redis.
type ResetTokenStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewResetTokenStore creates a ResetTokenStore. prefix defaults to "art".
func NewResetTokenStore(redisClient redis.UniversalClient, prefix string) *ResetTokenStore {
	if prefix == "" {
		prefix = "art"
	}
	return &ResetTokenStore{redis: redisClient, prefix: prefix}
}

func (s *ResetTokenStore) tokenKeyPrefix() string {
	return s.prefix + ":t:"
}

func (s *ResetTokenStore) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Upsert stores a new token for the user, atomically invalidating any
// prior token.
func (s *ResetTokenStore) Upsert(ctx context.Context, userID string, tokenHash [32]byte, expiresAt time.Time, ttl time.Duration) error {
	encoded, err := encodeResetTokenRecord(&ResetTokenRecord{
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return err
	}

	err = upsertResetLua.Run(
		ctx,
		s.redis,
		[]string{s.userKey(userID)},
		s.tokenKeyPrefix(),
		hex.EncodeToString(tokenHash[:]),
		encoded,
		strconv.FormatInt(ttl.Milliseconds(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}

	return nil
}

// Consume atomically fetches and deletes the token row. Deletion is the
// irreversible used flag: a second redemption of the same token finds
// nothing, even inside the expiry window.
func (s *ResetTokenStore) Consume(ctx context.Context, tokenHash [32]byte, now time.Time) (*ResetTokenRecord, error) {
	hexHash := hex.EncodeToString(tokenHash[:])

	data, err := s.redis.GetDel(ctx, s.tokenKeyPrefix()+hexHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResetNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrResetUnavailable, err)
	}

	record, err := decodeResetTokenRecord(data)
	if err != nil {
		return nil, err
	}
	if now.Unix() > record.ExpiresAt {
		return nil, ErrResetNotFound
	}

	// Best-effort pointer cleanup; a stale pointer only points at a key
	// that no longer exists and expires with its own TTL.
	_ = clearPointerLua.Run(ctx, s.redis, []string{s.userKey(record.UserID)}, hexHash).Err()

	return record, nil
}

func encodeResetTokenRecord(record *ResetTokenRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(resetRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.UserID) > 65535 {
		return nil, errors.New("reset record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodeResetTokenRecord(data []byte) (*ResetTokenRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != resetRecordVersionV1 {
		return nil, errors.New("invalid reset record version")
	}

	record := &ResetTokenRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	return record, nil
}
