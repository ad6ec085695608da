package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/praxis-pm/praxis/internal/shared"
)

// TokenManager orchestrates opaque bearer tokens backed by Redis.
type TokenManager struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(client *redis.Client, ttl time.Duration) *TokenManager {
	return &TokenManager{client: client, ttl: ttl}
}

// Issue mints a token for the email and stores it with the configured TTL.
func (tm *TokenManager) Issue(ctx context.Context, email string) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(tokenPayload{Email: email, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("auth: marshal token payload: %w", err)
	}
	if err := tm.client.Set(ctx, tm.redisKey(token), payload, tm.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve maps a presented token back to its principal. Unknown or expired
// tokens resolve to shared.ErrInvalidCredentials.
func (tm *TokenManager) Resolve(ctx context.Context, token string) (*shared.Principal, error) {
	raw, err := tm.client.Get(ctx, tm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: resolve token: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("auth: decode token payload: %w", err)
	}
	return &shared.Principal{Email: payload.Email, Token: token}, nil
}

// Revoke deletes the token. Revoking an unknown token is a no-op.
func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	if err := tm.client.Del(ctx, tm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

func (tm *TokenManager) redisKey(token string) string {
	return "token:" + token
}
