package auth

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps at most one live refresh token per user identity, keyed
// `<userID>-rToken` with a TTL mirroring the refresh-token lifetime. It is
// the sole source of truth for whether a refresh token is still valid.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID string) string {
	return userID + "-rToken"
}

// Save overwrites any previous entry: logging in again replaces the session,
// it does not append.
func (s *SessionStore) Save(ctx context.Context, userID, refreshToken string) error {
	return s.client.Set(ctx, sessionKey(userID), refreshToken, RefreshTTL).Err()
}

// Find returns the stored refresh token, or "" when no session exists.
func (s *SessionStore) Find(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (s *SessionStore) Remove(ctx context.Context, userID string) error {
	return s.client.Del(ctx, sessionKey(userID)).Err()
}
