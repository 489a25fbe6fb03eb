package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

type sessionData struct {
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"createdAt"`
}

// RedisStore 在 Redis 中记录仍然有效的会话，登出即删除对应的键
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "recruit-tracker:session:",
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) SaveSession(ctx context.Context, sessionID, uid string, expiresAt time.Time) error {
	data, err := json.Marshal(sessionData{UID: uid, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired at %s", expiresAt)
	}

	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LookupSession 返回会话所属的用户，会话不存在或已过期时返回 domain.ErrSessionRevoked
func (s *RedisStore) LookupSession(ctx context.Context, sessionID string) (string, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionRevoked
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}

	var data sessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", fmt.Errorf("unmarshal session: %w", err)
	}
	return data.UID, nil
}

func (s *RedisStore) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
