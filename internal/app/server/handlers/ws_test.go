package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jiyufengluo/taskly-kanban/internal/app/registry"
	"github.com/jiyufengluo/taskly-kanban/internal/config"
	"github.com/jiyufengluo/taskly-kanban/internal/core/domain"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
)

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *domain.User) (int64, error) {
	id := int64(len(f.users) + 1)
	u.ID = id
	f.users[id] = u
	return id, nil
}

type fakeMemberRepo struct {
	members map[string]bool
}

func memberKey(userID, projectID int64) string {
	return fmt.Sprintf("%d/%d", userID, projectID)
}

func (f *fakeMemberRepo) AddMember(_ context.Context, m *domain.ProjectMember) error {
	f.members[memberKey(m.UserID, m.ProjectID)] = true
	return nil
}

func (f *fakeMemberRepo) IsMember(_ context.Context, userID, projectID int64) (bool, error) {
	return f.members[memberKey(userID, projectID)], nil
}

func (f *fakeMemberRepo) ListMembers(_ context.Context, _ int64) ([]domain.ProjectMember, error) {
	return nil, nil
}

func (f *fakeMemberRepo) RemoveMember(_ context.Context, userID, projectID int64) error {
	delete(f.members, memberKey(userID, projectID))
	return nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type wsFixture struct {
	server   *httptest.Server
	registry *registry.Registry
	engine   *services.BroadcastEngine
	tokens   *services.TokenService
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))

	userRepo := &fakeUserRepo{users: map[int64]*domain.User{
		1: {ID: 1, Username: "alice", IsActive: true},
		2: {ID: 2, Username: "bob", IsActive: true},
		3: {ID: 3, Username: "mallory", IsActive: false},
	}}
	memberRepo := &fakeMemberRepo{members: map[string]bool{
		memberKey(1, 10): true,
		memberKey(2, 10): true,
		memberKey(1, 20): true,
	}}

	reg := registry.NewRegistry()
	engine := services.NewBroadcastEngine(log, reg)
	presence := services.NewPresenceTracker(log, reg, engine)
	router := services.NewRouter(log, engine, presence)
	tokens := services.NewTokenService("test-secret", time.Hour)
	users := services.NewUserService(log, userRepo, nil)
	membership := services.NewMembershipService(log, memberRepo, &memoryCache{data: map[string]string{}})

	h := NewWSHandler(log, reg, engine, presence, router, tokens, users, membership, config.WSConfig{
		SendTimeout:     time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	})

	mux := chi.NewRouter()
	mux.Get("/ws/projects/{projectID}", h.Handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &wsFixture{server: srv, registry: reg, engine: engine, tokens: tokens}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (f *wsFixture) dial(t *testing.T, projectID int64, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") +
		fmt.Sprintf("/ws/projects/%d?token=%s", projectID, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *wsFixture) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := f.tokens.GenerateToken(userID)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func readEnvelope(t *testing.T, conn *websocket.Conn) domain.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return env
}

func presenceUsers(t *testing.T, env domain.Envelope) []int64 {
	t.Helper()
	raw, _ := json.Marshal(env.Payload)
	var payload domain.PresencePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatal(err)
	}
	return payload.Users
}

func TestConnectionLifecycle(t *testing.T) {
	f := newWSFixture(t)

	// First joiner is greeted with an empty room.
	alice := f.dial(t, 10, f.tokenFor(t, 1))
	snap := readEnvelope(t, alice)
	if snap.Type != domain.TypePresenceSnapshot {
		t.Fatalf("first frame = %q, want presence_snapshot", snap.Type)
	}
	if users := presenceUsers(t, snap); len(users) != 0 {
		t.Fatalf("first joiner sees %v, want empty", users)
	}

	// Second joiner sees the first; the first is told about the second.
	bob := f.dial(t, 10, f.tokenFor(t, 2))
	snap = readEnvelope(t, bob)
	if users := presenceUsers(t, snap); len(users) != 1 || users[0] != 1 {
		t.Fatalf("second joiner sees %v, want [1]", users)
	}
	joined := readEnvelope(t, alice)
	if joined.Type != domain.TypeUserJoined || joined.UserID != 2 {
		t.Fatalf("got %+v, want user_joined from user 2", joined)
	}

	// Disconnect announces the departure once the last session is gone.
	bob.Close()
	left := readEnvelope(t, alice)
	if left.Type != domain.TypeUserLeft || left.UserID != 2 {
		t.Fatalf("got %+v, want user_left from user 2", left)
	}
}

func TestGracefulCloseSparesHealthyPeers(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, 10, f.tokenFor(t, 1))
	readEnvelope(t, alice)
	bob := f.dial(t, 10, f.tokenFor(t, 2))
	readEnvelope(t, bob)
	readEnvelope(t, alice) // bob's join

	// A proper close handshake, not a dropped transport.
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := bob.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	left := readEnvelope(t, alice)
	if left.Type != domain.TypeUserLeft || left.UserID != 2 {
		t.Fatalf("got %+v, want user_left from user 2", left)
	}
	if !f.registry.UserPresent(10, 1) {
		t.Fatal("healthy peer was reaped by another session's close")
	}

	// The surviving session still round-trips.
	if err := alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, alice); env.Type != domain.TypePong {
		t.Fatalf("got %q after peer's close, want pong", env.Type)
	}
}

func TestPingPong(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, 10, f.tokenFor(t, 1))
	readEnvelope(t, conn) // snapshot

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, conn); env.Type != domain.TypePong {
		t.Fatalf("got %q, want pong", env.Type)
	}
}

func TestUnknownFrameKeepsConnectionOpen(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, 10, f.tokenFor(t, 1))
	readEnvelope(t, conn) // snapshot

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, conn); env.Type != domain.TypeError {
		t.Fatalf("got %q, want error", env.Type)
	}

	// The session survived the bad frame.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, conn); env.Type != domain.TypePong {
		t.Fatalf("got %q after bad frame, want pong", env.Type)
	}
}

func TestServerOriginatedBroadcastExcludesActor(t *testing.T) {
	f := newWSFixture(t)
	alice := f.dial(t, 10, f.tokenFor(t, 1))
	readEnvelope(t, alice)
	bob := f.dial(t, 10, f.tokenFor(t, 2))
	readEnvelope(t, bob)
	readEnvelope(t, alice) // bob's join

	// A REST mutation by bob fans out to everyone else in the project.
	f.engine.Broadcast(context.Background(), 10,
		domain.NewEvent(domain.TypeCardCreated, map[string]any{"card_id": 7}, 2), 2)

	env := readEnvelope(t, alice)
	if env.Type != domain.TypeCardCreated || env.UserID != 2 {
		t.Fatalf("got %+v, want card_created from user 2", env)
	}

	// Bob's next frame must be the pong, not his own mutation echoed.
	if err := bob.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, bob); env.Type != domain.TypePong {
		t.Fatalf("got %q, want pong", env.Type)
	}
}

func TestProjectScopeIsolation(t *testing.T) {
	f := newWSFixture(t)
	inScope := f.dial(t, 10, f.tokenFor(t, 2))
	readEnvelope(t, inScope)
	elsewhere := f.dial(t, 20, f.tokenFor(t, 1))
	readEnvelope(t, elsewhere)

	f.engine.Broadcast(context.Background(), 10,
		domain.NewSystemEvent(domain.TypeBoardUpdated, nil), 0)

	if env := readEnvelope(t, inScope); env.Type != domain.TypeBoardUpdated {
		t.Fatalf("got %q, want board_updated", env.Type)
	}

	// The other project's session sees only its own pong.
	if err := elsewhere.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, elsewhere); env.Type != domain.TypePong {
		t.Fatalf("frame crossed project scopes: %+v", env)
	}
}

func TestRejectsBadCredentials(t *testing.T) {
	f := newWSFixture(t)

	cases := []struct {
		name      string
		projectID int64
		token     func(t *testing.T) string
		closeCode int
	}{
		{"invalid token", 10, func(t *testing.T) string { return "garbage" }, websocket.ClosePolicyViolation},
		{"unknown user", 10, func(t *testing.T) string { return f.tokenFor(t, 99) }, websocket.ClosePolicyViolation},
		{"inactive user", 10, func(t *testing.T) string { return f.tokenFor(t, 3) }, websocket.ClosePolicyViolation},
		{"non-member", 20, func(t *testing.T) string { return f.tokenFor(t, 2) }, CloseForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := f.dial(t, tc.projectID, tc.token(t))
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			if err == nil {
				t.Fatal("expected the server to close the connection")
			}
			closeErr, ok := err.(*websocket.CloseError)
			if !ok {
				t.Fatalf("got %v, want a close error", err)
			}
			if closeErr.Code != tc.closeCode {
				t.Fatalf("close code = %d, want %d", closeErr.Code, tc.closeCode)
			}
		})
	}
}

func TestRejectsInvalidProjectID(t *testing.T) {
	f := newWSFixture(t)

	for _, raw := range []string{"abc", "0", "-5"} {
		url := f.server.URL + "/ws/projects/" + raw + "?token=" + f.tokenFor(t, 1)
		resp, err := http.Get(url)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("project id %q: status %d, want 400", raw, resp.StatusCode)
		}
	}
}

func TestMultipleTabsSingleLeave(t *testing.T) {
	f := newWSFixture(t)
	watcher := f.dial(t, 10, f.tokenFor(t, 1))
	readEnvelope(t, watcher)

	tab1 := f.dial(t, 10, f.tokenFor(t, 2))
	readEnvelope(t, tab1)
	readEnvelope(t, watcher) // join

	tab2 := f.dial(t, 10, f.tokenFor(t, 2))
	readEnvelope(t, tab2)
	readEnvelope(t, watcher) // second join announcement

	// Closing one tab must not announce a departure while the other
	// tab is still attached.
	tab1.Close()
	time.Sleep(100 * time.Millisecond)
	if !f.registry.UserPresent(10, 2) {
		t.Fatal("user should remain present with one tab open")
	}

	// The watcher's next frame must be tab2's relay, not a premature
	// user_left from tab1's teardown.
	if err := tab2.WriteMessage(websocket.TextMessage, []byte(`{"type":"user_typing","data":{}}`)); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, watcher); env.Type != domain.TypeUserTyping {
		t.Fatalf("got %q after first tab closed, want user_typing", env.Type)
	}

	tab2.Close()
	left := readEnvelope(t, watcher)
	if left.Type != domain.TypeUserLeft || left.UserID != 2 {
		t.Fatalf("got %+v, want user_left from user 2", left)
	}
}
