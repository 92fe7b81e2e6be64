package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trustrent/internal/auth/models"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix  = "session:"
	userSessionsKey   = "user_sessions:"
	userSessionsSlack = time.Hour
)

// RedisStore persists sessions in Redis. Each session lives under its own key
// with a TTL derived from ExpiresAt, so expiry needs no sweeper. A per-user
// set tracks session membership for listing and bulk deletion.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func userKey(userID id.UserID) string {
	return userSessionsKey + userID.String()
}

// Create writes the session and adds it to the owner's set in one pipeline.
// The membership set outlives the session key slightly; stale members are
// skipped on read.
func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
	pipe.SAdd(ctx, userKey(session.UserID), session.ID.String())
	pipe.Expire(ctx, userKey(session.UserID), ttl+userSessionsSlack)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// FindByID returns the session, or sentinel.ErrNotFound once the key expired
// or never existed.
func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// ListByUser returns the user's live sessions. Members whose session key has
// already expired are dropped from the result.
func (s *RedisStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	members, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	out := make([]*models.Session, 0, len(members))
	for _, member := range members {
		sessionID, err := id.ParseSessionID(member)
		if err != nil {
			continue
		}
		session, err := s.FindByID(ctx, sessionID)
		if err != nil {
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

// RevokeSessionIfActive revokes the session under an optimistic WATCH
// transaction: concurrent writers on the same key fail with
// redis.TxFailedErr and can retry. An already-revoked session returns
// ErrSessionRevoked.
func (s *RedisStore) RevokeSessionIfActive(ctx context.Context, sessionID id.SessionID, at time.Time) error {
	key := sessionKey(sessionID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return fmt.Errorf("session %s: %w", sessionID, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		var session models.Session
		if err := json.Unmarshal(payload, &session); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}
		if session.Status == models.SessionStatusRevoked {
			return ErrSessionRevoked
		}

		session.Status = models.SessionStatusRevoked
		session.RevokedAt = &at

		updated, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		ttl, err := tx.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("read session ttl: %w", err)
		}
		if ttl <= 0 {
			return fmt.Errorf("session %s: %w", sessionID, sentinel.ErrNotFound)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, ttl)
			return nil
		})
		return err
	}, key)
}

// DeleteSessionsByUser removes every session the user owns plus the
// membership set. Returns sentinel.ErrNotFound when the set is empty.
func (s *RedisStore) DeleteSessionsByUser(ctx context.Context, userID id.UserID) error {
	members, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	if len(members) == 0 {
		return fmt.Errorf("sessions for user %s: %w", userID, sentinel.ErrNotFound)
	}

	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		keys = append(keys, sessionKeyPrefix+member)
	}
	keys = append(keys, userKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
