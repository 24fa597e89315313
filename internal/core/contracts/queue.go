package contracts

import "context"

// NotificationQueue is the fire-and-forget sink between REST handlers
// and the notification worker, backed by a stream per topic.
type NotificationQueue interface {
	// Producer side (request handlers).
	PublishToStream(ctx context.Context, topic string, payload []byte) error
	// Consumer side (worker). Blocks until ctx is cancelled.
	SubscribeToStream(ctx context.Context, topic, group string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// AcknowledgeMessage marks the message as processed for the group.
	AcknowledgeMessage(ctx context.Context, topic, group, messageID string) error
	// DeleteMessage removes the message from the stream.
	DeleteMessage(ctx context.Context, topic, messageID string) error
}
