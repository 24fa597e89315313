package contracts

import "context"

// AsyncWorker consumes the notification stream. Run blocks until the
// context is cancelled; the owner of the worker decides its lifetime.
type AsyncWorker interface {
	Run(ctx context.Context) error
	ProcessMessage(ctx context.Context, messageID string, raw []byte) error
}
