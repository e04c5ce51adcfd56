// Package otp stores short-lived one-time verification codes in Redis.
// Codes are written under a scoped pending key with a TTL and consumed
// exactly once: verification compares and deletes atomically via a Lua
// script so a code can never be replayed.
package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/warga-app/warga-server/internal/apperr"
)

// Scopes separate the code namespaces of the flows that use them.
const (
	ScopeRegister = "register"
	ScopeLogin    = "login"
)

// DefaultTTL is the lifetime of a pending code.
const DefaultTTL = 5 * time.Minute

var (
	// ErrCodeMismatch is returned when the supplied code is wrong or expired.
	ErrCodeMismatch = apperr.New(apperr.KindForbidden, "verification code is wrong or expired")
)

// consumeScript compares the stored code with the supplied one and deletes
// the key on match, in one atomic step.
const consumeScript = `
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
if val ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`

// Store keeps pending verification codes in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a code store with the given TTL; zero means DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{client: client, ttl: ttl}
}

func key(scope, email string) string {
	return fmt.Sprintf("otp:%s:pending:%s", scope, email)
}

// Put stores a pending code for the scope and email, replacing any previous
// one and resetting the TTL.
func (s *Store) Put(ctx context.Context, scope, email, code string) error {
	if err := s.client.Set(ctx, key(scope, email), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	return nil
}

// Consume verifies and deletes the pending code in one atomic step.
// A wrong, missing or expired code returns ErrCodeMismatch.
func (s *Store) Consume(ctx context.Context, scope, email, code string) error {
	res := s.client.Eval(ctx, consumeScript, []string{key(scope, email)}, code)
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to verify code: %w", err)
	}

	ok, err := res.Int()
	if err != nil {
		return fmt.Errorf("unexpected script result: %w", err)
	}

	if ok != 1 {
		return ErrCodeMismatch
	}

	return nil
}

// Drop removes a pending code without verifying it (idempotent).
func (s *Store) Drop(ctx context.Context, scope, email string) error {
	if err := s.client.Del(ctx, key(scope, email)).Err(); err != nil {
		return fmt.Errorf("failed to drop verification code: %w", err)
	}

	return nil
}
