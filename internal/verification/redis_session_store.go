package verification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "secure_session:v1:"

// RedisSessionStore keeps secure sessions in Redis under a TTL matching the
// session window, so expiry needs no sweeper even across restarts.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a session store backed by Redis.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, session SecureSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, sessionKeyPrefix+session.ProjectID, payload, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, projectID string) (SecureSession, bool, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+projectID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SecureSession{}, false, nil
		}
		return SecureSession{}, false, err
	}

	var session SecureSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return SecureSession{}, false, err
	}

	// TTL is the primary guard; the timestamp check covers clock skew
	// between the app and Redis.
	if !time.Now().UTC().Before(session.ExpiresAt) {
		return SecureSession{}, false, nil
	}
	return session, true, nil
}

func (s *RedisSessionStore) AddAction(ctx context.Context, projectID, action string) error {
	session, found, err := s.Get(ctx, projectID)
	if err != nil || !found {
		return err
	}
	if session.HasAction(action) {
		return nil
	}
	session.Actions = append(session.Actions, action)

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, sessionKeyPrefix+projectID, payload, ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, projectID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+projectID).Err()
}
