package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

const (
	notificationCap = 100
	notificationTTL = 30 * 24 * time.Hour
)

// RedisNotificationStore keeps each user's most recent notifications
// in a capped list with an expiry, so inactive inboxes age out on
// their own.
type RedisNotificationStore struct {
	rdb *redis.Client
}

func NewRedisNotificationStore(rdb *redis.Client) *RedisNotificationStore {
	return &RedisNotificationStore{rdb: rdb}
}

func notificationsKey(userID int64) string {
	return fmt.Sprintf("taskly:notifications:%d", userID)
}

func (s *RedisNotificationStore) Push(ctx context.Context, n domain.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := notificationsKey(n.UserID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, notificationCap-1)
	pipe.Expire(ctx, key, notificationTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisNotificationStore) List(ctx context.Context, userID int64, limit int64) ([]domain.Notification, error) {
	if limit <= 0 || limit > notificationCap {
		limit = notificationCap
	}
	raw, err := s.rdb.LRange(ctx, notificationsKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var n domain.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
