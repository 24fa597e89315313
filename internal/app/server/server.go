package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jiyufengluo/taskly-kanban/internal/app/server/handlers"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/pkg/middleware"
)

type Deps struct {
	Auth          *handlers.AuthHandler
	Projects      *handlers.ProjectHandler
	Boards        *handlers.BoardHandler
	Cards         *handlers.CardHandler
	Activities    *handlers.ActivityHandler
	Notifications *handlers.NotificationHandler
	Stats         *handlers.StatsHandler
	WS            *handlers.WSHandler
	Tokens        *services.TokenService
}

type Server struct {
	router chi.Router
	addr   string
	name   string
	log    *slog.Logger
}

func NewServer(log *slog.Logger, name, addr string, deps Deps) *Server {
	s := &Server{
		router: chi.NewRouter(),
		addr:   addr,
		name:   name,
		log:    log,
	}
	s.routes(deps)
	return s
}

func (s *Server) routes(deps Deps) {
	r := s.router
	r.Use(chimw.Recoverer)
	r.Use(middleware.TracerMiddleware(s.name))
	r.Use(middleware.RequestLogger(s.log))

	auth := middleware.AuthMiddleware(deps.Tokens)

	// Public surface.
	r.Post("/api/v1/auth/register", deps.Auth.Register)
	r.Post("/api/v1/auth/login", deps.Auth.Login)
	r.Get("/api/v1/ws/stats", deps.Stats.Get)

	// The socket endpoint authenticates in-band (token query param),
	// because browsers cannot attach headers to WebSocket requests.
	r.Get("/ws/projects/{projectID}", deps.WS.Handler)

	// Authenticated REST surface.
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/api/v1/projects", func(r chi.Router) {
			r.Post("/", deps.Projects.Create)
			r.Get("/", deps.Projects.List)
			r.Get("/{projectID}", deps.Projects.Get)
			r.Put("/{projectID}", deps.Projects.Update)
			r.Delete("/{projectID}", deps.Projects.Delete)
			r.Post("/{projectID}/members", deps.Projects.AddMember)
			r.Get("/{projectID}/members", deps.Projects.ListMembers)
			r.Post("/{projectID}/boards", deps.Boards.Create)
			r.Get("/{projectID}/boards", deps.Boards.List)
			r.Get("/{projectID}/activities", deps.Activities.List)
		})

		r.Route("/api/v1/boards", func(r chi.Router) {
			r.Get("/{boardID}", deps.Boards.Get)
			r.Put("/{boardID}", deps.Boards.Update)
			r.Post("/{boardID}/lists", deps.Boards.CreateList)
		})

		r.Route("/api/v1/lists", func(r chi.Router) {
			r.Put("/{listID}", deps.Boards.UpdateList)
			r.Delete("/{listID}", deps.Boards.DeleteList)
			r.Post("/{listID}/cards", deps.Cards.Create)
			r.Get("/{listID}/cards", deps.Cards.ListForList)
		})

		r.Route("/api/v1/cards", func(r chi.Router) {
			r.Get("/{cardID}", deps.Cards.Get)
			r.Put("/{cardID}", deps.Cards.Update)
			r.Delete("/{cardID}", deps.Cards.Delete)
			r.Post("/{cardID}/move", deps.Cards.Move)
		})

		r.Get("/api/v1/notifications", deps.Notifications.List)
	})
}

// Handler exposes the assembled router; tests mount it on httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would sever long-lived socket sessions.
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
