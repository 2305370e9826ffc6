package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// SessionStore keeps live sessions in redis keyed by bearer token. Postgres
// holds the audit trail; redis decides whether a token is currently valid.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Save writes the session with the configured TTL.
func (s *SessionStore) Save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.Token), payload, s.ttl).Err()
}

// Load fetches a session by token. Expired or unknown tokens resolve to
// ErrInvalidCredentials.
func (s *SessionStore) Load(ctx context.Context, token string) (Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, shared.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, shared.ErrInvalidCredentials
	}
	sess.Token = token
	return sess, nil
}

// Delete drops the session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// TTL reports the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
