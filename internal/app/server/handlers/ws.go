package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiyufengluo/taskly-kanban/internal/app/server/ws"
	"github.com/jiyufengluo/taskly-kanban/internal/config"
	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/internal/platform/logger"
)

// CloseForbidden is sent when an authenticated user is not a member of
// the project they attached to.
const CloseForbidden = 4003

// WSHandler is the connection lifecycle controller:
// accept → authenticate → authorize → register → serve → teardown.
// Teardown runs on every exit path out of the serve loop.
type WSHandler struct {
	registry   contracts.Registry
	engine     contracts.Broadcaster
	presence   *services.PresenceTracker
	router     *services.Router
	tokens     *services.TokenService
	users      *services.UserService
	membership *services.MembershipService
	cfg        config.WSConfig
	log        *slog.Logger
}

func NewWSHandler(
	log *slog.Logger,
	registry contracts.Registry,
	engine contracts.Broadcaster,
	presence *services.PresenceTracker,
	router *services.Router,
	tokens *services.TokenService,
	users *services.UserService,
	membership *services.MembershipService,
	cfg config.WSConfig,
) *WSHandler {
	return &WSHandler{
		log:        log,
		registry:   registry,
		engine:     engine,
		presence:   presence,
		router:     router,
		tokens:     tokens,
		users:      users,
		membership: membership,
		cfg:        cfg,
	}
}

// Handler serves GET /ws/projects/{projectID}?token=...
func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())

	projectID, err := idParam(r, "projectID")
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")

	upgrader := websocket.Upgrader{
		ReadBufferSize:  h.cfg.ReadBufferSize,
		WriteBufferSize: h.cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		return
	}

	// Authenticate. Close codes are only deliverable post-upgrade, so
	// the credential check happens on the open socket.
	userID, err := h.tokens.VerifyToken(token)
	if err != nil {
		log.WarnContext(r.Context(), "ws handler - invalid token", "project_id", projectID)
		closeWith(conn, websocket.ClosePolicyViolation, "invalid token")
		return
	}
	user, err := h.users.Lookup(r.Context(), userID)
	if err != nil || !user.IsActive {
		log.WarnContext(r.Context(), "ws handler - unknown principal", "user_id", userID)
		closeWith(conn, websocket.ClosePolicyViolation, "unknown principal")
		return
	}
	span.SetAttributes(attribute.Int64("user.id", userID))

	// Authorize.
	member, err := h.membership.IsMember(r.Context(), userID, projectID)
	if err != nil || !member {
		log.WarnContext(r.Context(), "ws handler - not a member", "user_id", userID, "project_id", projectID)
		closeWith(conn, CloseForbidden, "not a project member")
		return
	}

	// The session outlives the HTTP request context. A peer's close
	// frame ends the read loop on its own; nothing cancels this context
	// before teardown has finished announcing the departure.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	socket := ws.NewWebSocket(sessionCtx, conn, h.log)
	sess := ws.NewSession(sessionCtx, socket, userID, projectID, h.cfg.SendTimeout)

	// Register, then greet the newcomer with everyone else already
	// here, then announce them to the rest of the scope.
	h.registry.Register(sess)
	defer h.teardown(sessionCtx, sess)

	if err := h.engine.Send(sessionCtx, sess, h.presence.Snapshot(projectID, userID)); err != nil {
		return
	}
	h.presence.AnnounceJoin(sessionCtx, projectID, userID)
	log.InfoContext(r.Context(), "ws handler - session established", "session_id", sess.ID(), "user_id", userID, "project_id", projectID)

	// Serve. Frames are routed synchronously so one session's messages
	// keep their order.
	socket.ReadLoop(func(data []byte) {
		h.router.Route(sessionCtx, sess, data)
	})
}

// teardown always runs when the serve loop exits, whatever the reason.
// Unregister is idempotent, so a session already reaped by a failed
// broadcast is handled cleanly here.
func (h *WSHandler) teardown(ctx context.Context, sess contracts.Session) {
	// The leave announcement must reach healthy peers even when the
	// session's own context is already cancelled.
	ctx = context.WithoutCancel(ctx)
	projectID, userID := sess.ProjectID(), sess.UserID()
	h.registry.Unregister(sess)
	sess.Close()
	if !h.registry.UserPresent(projectID, userID) {
		h.presence.AnnounceLeave(ctx, projectID, userID)
	}
	h.log.Info("ws handler - session closed", "session_id", sess.ID(), "user_id", userID, "project_id", projectID)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
