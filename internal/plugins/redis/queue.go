package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const streamField = "payload"

// RedisNotificationQueue carries notification jobs on a Redis Stream
// with consumer-group delivery, so a restarted worker resumes from its
// pending entries.
type RedisNotificationQueue struct {
	rdb *redis.Client
}

func NewRedisNotificationQueue(rdb *redis.Client) *RedisNotificationQueue {
	return &RedisNotificationQueue{rdb: rdb}
}

func (q *RedisNotificationQueue) PublishToStream(ctx context.Context, topic string, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{streamField: payload},
	}).Err()
}

func (q *RedisNotificationQueue) SubscribeToStream(
	ctx context.Context,
	topic, group string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	err := q.rdb.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	consumer := group + "-consumer"
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		streams, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{topic, ">"},
			Count:    16,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// transient read failure, back off briefly
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				raw, _ := msg.Values[streamField].(string)
				_ = handler(ctx, msg.ID, []byte(raw))
			}
		}
	}
}

func (q *RedisNotificationQueue) AcknowledgeMessage(ctx context.Context, topic, group, messageID string) error {
	return q.rdb.XAck(ctx, topic, group, messageID).Err()
}

func (q *RedisNotificationQueue) DeleteMessage(ctx context.Context, topic, messageID string) error {
	return q.rdb.XDel(ctx, topic, messageID).Err()
}
