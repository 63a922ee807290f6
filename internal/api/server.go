// Package api exposes the coordinator over a small JSON HTTP surface:
// activity and playback reporting for clients, session and account
// administration for operators.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/treefix50/playhead/internal/log"
	"github.com/treefix50/playhead/internal/session"
	"github.com/treefix50/playhead/internal/user"
)

// ResumeLister serves a user's continue-watching keys, most recent first.
type ResumeLister interface {
	ResumeItems(userID string, limit int) ([]string, error)
}

type Server struct {
	addr        string
	tracker     *session.Tracker
	coordinator *session.Coordinator
	users       *user.Manager
	resume      ResumeLister
	http        *http.Server
	logger      zerolog.Logger
}

// New builds the HTTP server around the coordinator and its collaborators.
func New(addr string, tracker *session.Tracker, coordinator *session.Coordinator, users *user.Manager, resume ResumeLister) *Server {
	s := &Server{
		addr:        addr,
		tracker:     tracker,
		coordinator: coordinator,
		users:       users,
		resume:      resume,
		logger:      log.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(httprate.LimitByIP(300, time.Minute))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.withToken)

			r.Post("/logout", s.handleLogout)
			r.Get("/resume", s.handleResumeItems)
			r.Post("/sessions/activity", s.handleActivity)
			r.Post("/sessions/{id}/playing", s.handlePlaybackStart)
			r.Post("/sessions/{id}/progress", s.handlePlaybackProgress)
			r.Post("/sessions/{id}/stopped", s.handlePlaybackStopped)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.withToken, s.requireAdmin)

			r.Get("/sessions", s.handleListSessions)
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Post("/users/{id}/disable", s.handleDisableUser)
			r.Post("/users/{id}/enable", s.handleEnableUser)
		})
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error { return s.http.ListenAndServe() }

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
