package redis

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// AuthCodeStore implements ports.AuthCodeStore using Redis. One code exists
// per user at a time; issuing a new one replaces any outstanding code. Only
// the code's SHA-256 digest is stored, and GETDEL makes consumption atomic:
// two racing transfers cannot both verify against the same code.
type AuthCodeStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewAuthCodeStore creates a new Redis-backed authorization code store.
func NewAuthCodeStore(client *goredis.Client, ttl time.Duration) *AuthCodeStore {
	return &AuthCodeStore{
		client: client,
		prefix: "authcode:",
		ttl:    ttl,
	}
}

// Issue generates a 6-digit code for the user and stores its digest with
// the configured TTL. The plaintext code is returned once for delivery and
// never persisted.
func (s *AuthCodeStore) Issue(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate auth code: %w", err)
	}
	code := fmt.Sprintf("%06d", n)

	expiresAt := time.Now().Add(s.ttl)
	key := s.prefix + userID.String()
	if err := s.client.Set(ctx, key, hashCode(code), s.ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("store auth code: %w", err)
	}
	return code, expiresAt, nil
}

// Consume removes the user's outstanding code and reports whether the
// presented code matched it. A missing, expired, or already-consumed code
// reports false.
func (s *AuthCodeStore) Consume(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	key := s.prefix + userID.String()
	stored, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("consume auth code: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(hashCode(code))) == 1, nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
