package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSendTimeout   = errors.New("send timed out")
)

const sendBuffer = 256

// Session owns one live connection. All writes funnel through the out
// channel into a single writer goroutine, so two broadcasts can never
// interleave bytes on the wire. Send enqueues with a deadline: a peer
// that stops draining is reported as dead instead of stalling the
// caller.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	ws          *WebSocket
	id          string
	userID      int64
	projectID   int64
	out         chan []byte
	sendTimeout time.Duration
	once        sync.Once
}

func NewSession(parent context.Context, ws *WebSocket, userID, projectID int64, sendTimeout time.Duration) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ctx:         ctx,
		cancel:      cancel,
		ws:          ws,
		id:          uuid.NewString(),
		userID:      userID,
		projectID:   projectID,
		out:         make(chan []byte, sendBuffer),
		sendTimeout: sendTimeout,
	}
	go s.writeLoop()
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) UserID() int64    { return s.userID }
func (s *Session) ProjectID() int64 { return s.projectID }

func (s *Session) Send(ctx context.Context, data []byte) error {
	// A dead session must be reported, not silently fed. The enqueue
	// select below picks a ready case at random, so a closed session
	// with buffer room could otherwise swallow the frame.
	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t := time.NewTimer(s.sendTimeout)
	defer t.Stop()
	select {
	case s.out <- data:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return ErrSendTimeout
	}
}

// Close is idempotent. The out channel is left open so a concurrent
// Send can never hit a closed-channel panic; senders observe the
// cancelled context instead.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		s.ws.Close()
	})
}

func (s *Session) writeLoop() {
	defer s.Close()
	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.out:
			if err := s.ws.WriteMessage(data); err != nil {
				return
			}
		}
	}
}
