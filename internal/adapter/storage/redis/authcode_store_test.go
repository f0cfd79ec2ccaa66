package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCodeStore_IssueAndConsume(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAuthCodeStore(client, 5*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	code, expiresAt, err := store.Issue(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	ok, err := store.Consume(ctx, userID, code)
	require.NoError(t, err)
	assert.True(t, ok, "freshly issued code should verify")
}

func TestAuthCodeStore_Consume_SingleUse(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAuthCodeStore(client, 5*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	code, _, err := store.Issue(ctx, userID)
	require.NoError(t, err)

	ok, err := store.Consume(ctx, userID, code)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second use
	ok, err = store.Consume(ctx, userID, code)
	require.NoError(t, err)
	assert.False(t, ok, "consumed code must not verify again")
}

func TestAuthCodeStore_Consume_WrongCode(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAuthCodeStore(client, 5*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	_, _, err := store.Issue(ctx, userID)
	require.NoError(t, err)

	ok, err := store.Consume(ctx, userID, "000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthCodeStore_Consume_NoOutstandingCode(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAuthCodeStore(client, 5*time.Minute)

	ok, err := store.Consume(context.Background(), uuid.New(), "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthCodeStore_Consume_Expired(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAuthCodeStore(client, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	code, _, err := store.Issue(ctx, userID)
	require.NoError(t, err)

	s.FastForward(2 * time.Minute)

	ok, err := store.Consume(ctx, userID, code)
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not verify")
}

func TestAuthCodeStore_Issue_ReplacesOutstanding(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAuthCodeStore(client, 5*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	first, _, err := store.Issue(ctx, userID)
	require.NoError(t, err)
	second, _, err := store.Issue(ctx, userID)
	require.NoError(t, err)

	ok, err := store.Consume(ctx, userID, first)
	require.NoError(t, err)
	if first != second {
		assert.False(t, ok, "superseded code must not verify")
	}
}
