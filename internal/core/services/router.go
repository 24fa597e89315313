package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
)

// Router classifies inbound client frames and dispatches them. Every
// failure at this layer is recoverable: the sender gets an "error"
// envelope and the connection stays open.
type Router struct {
	engine   contracts.Broadcaster
	presence *PresenceTracker
	log      *slog.Logger
}

func NewRouter(log *slog.Logger, engine contracts.Broadcaster, presence *PresenceTracker) *Router {
	return &Router{engine: engine, presence: presence, log: log}
}

// relayed frames are rebroadcast to the rest of the project with the
// payload passed through verbatim.
var relayed = map[string]bool{
	domain.TypeUserTyping:      true,
	domain.TypeCursorPosition:  true,
	domain.TypeSelectionChange: true,
	domain.TypeProjectUpdated:  true,
	domain.TypeBoardUpdated:    true,
	domain.TypeListCreated:     true,
	domain.TypeListUpdated:     true,
	domain.TypeListDeleted:     true,
	domain.TypeCardCreated:     true,
	domain.TypeCardUpdated:     true,
	domain.TypeCardDeleted:     true,
	domain.TypeCardMoved:       true,
}

func (r *Router) Route(ctx context.Context, sess contracts.Session, raw []byte) {
	var frame domain.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.log.WarnContext(ctx, "router - malformed frame", "session_id", sess.ID(), "err", err)
		r.reply(ctx, sess, domain.NewErrorEvent("malformed frame: expected {\"type\", \"data\"}"))
		return
	}

	switch {
	case frame.Type == domain.TypePing:
		r.reply(ctx, sess, domain.NewSystemEvent(domain.TypePong, nil))

	case frame.Type == domain.TypeRequestOnlineUsers:
		r.reply(ctx, sess, r.presence.Snapshot(sess.ProjectID(), sess.UserID()))

	case relayed[frame.Type]:
		msg := domain.NewEvent(frame.Type, frame.Data, sess.UserID())
		r.engine.Broadcast(ctx, sess.ProjectID(), msg, sess.UserID())

	default:
		r.log.WarnContext(ctx, "router - unknown message type", "session_id", sess.ID(), "type", frame.Type)
		r.reply(ctx, sess, domain.NewErrorEvent("unknown message type: "+frame.Type))
	}
}

// reply targets the sender only. A failed reply means the sender's own
// socket is dying; the read loop will observe that shortly, so the
// error is dropped here.
func (r *Router) reply(ctx context.Context, sess contracts.Session, msg domain.Envelope) {
	_ = r.engine.Send(ctx, sess, msg)
}
