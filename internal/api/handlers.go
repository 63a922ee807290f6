package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/treefix50/playhead/internal/media"
	"github.com/treefix50/playhead/internal/session"
	"github.com/treefix50/playhead/internal/user"
)

const errInternal = "internal error"

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeCoordinatorError maps the coordinator's error kinds onto HTTP codes.
func (s *Server) writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidArgument):
		s.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrAccountDisabled):
		s.writeError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, session.ErrSessionNotFound):
		s.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrPersistence):
		s.writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger.Error().Err(err).Msg("unhandled coordinator error")
		s.writeError(w, errInternal, http.StatusInternalServerError)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Password) == "" {
		s.writeError(w, "name and password are required", http.StatusBadRequest)
		return
	}

	token, err := s.users.Login(payload.Name, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			s.writeError(w, "invalid credentials", http.StatusUnauthorized)
		case errors.Is(err, user.ErrAccountDisabled):
			s.writeError(w, err.Error(), http.StatusForbidden)
		default:
			s.logger.Error().Err(err).Msg("login failed")
			s.writeError(w, errInternal, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, token)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	if err := s.users.Logout(token.Value); err != nil {
		s.logger.Error().Err(err).Msg("logout failed")
		s.writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleResumeItems(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			s.writeError(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	keys, err := s.resume.ResumeItems(tokenFrom(r).UserID, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list resume items failed")
		s.writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, map[string][]string{"items": keys})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ClientType string `json:"clientType"`
		DeviceID   string `json:"deviceId"`
		AppVersion string `json:"appVersion"`
		DeviceName string `json:"deviceName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, "bad request", http.StatusBadRequest)
		return
	}

	u, err := s.users.GetUser(tokenFrom(r).UserID)
	if err != nil {
		s.writeError(w, "unknown account", http.StatusUnauthorized)
		return
	}

	sess, err := s.tracker.RecordActivity(payload.ClientType, payload.DeviceID, payload.AppVersion, payload.DeviceName, u)
	if err != nil {
		s.writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, sess.Snapshot())
}

type itemPayload struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Kind         media.Kind `json:"kind"`
	RuntimeTicks *int64     `json:"runtimeTicks,omitempty"`
}

func (p *itemPayload) toItem() *media.Item {
	if p == nil || p.ID == "" {
		return nil
	}
	return &media.Item{
		ID:           p.ID,
		Name:         p.Name,
		Kind:         p.Kind,
		RuntimeTicks: p.RuntimeTicks,
	}
}

func (s *Server) handlePlaybackStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Item *itemPayload `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.coordinator.OnPlaybackStart(payload.Item.toItem(), chi.URLParam(r, "id")); err != nil {
		s.writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePlaybackProgress(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Item          *itemPayload `json:"item"`
		PositionTicks *int64       `json:"positionTicks,omitempty"`
		IsPaused      bool         `json:"isPaused"`
		IsMuted       bool         `json:"isMuted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, "bad request", http.StatusBadRequest)
		return
	}

	err := s.coordinator.OnPlaybackProgress(payload.Item.toItem(), payload.PositionTicks, payload.IsPaused, payload.IsMuted, chi.URLParam(r, "id"))
	if err != nil {
		s.writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePlaybackStopped(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Item          *itemPayload `json:"item"`
		PositionTicks *int64       `json:"positionTicks,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.coordinator.OnPlaybackStopped(payload.Item.toItem(), payload.PositionTicks, chi.URLParam(r, "id")); err != nil {
		s.writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.coordinator.ListSessions())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers()
	if err != nil {
		s.logger.Error().Err(err).Msg("list users failed")
		s.writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Password) == "" {
		s.writeError(w, "name and password are required", http.StatusBadRequest)
		return
	}

	created, err := s.users.CreateUser(payload.Name, payload.Password, payload.IsAdmin)
	if err != nil {
		if errors.Is(err, user.ErrUserExists) {
			s.writeError(w, "user already exists", http.StatusConflict)
			return
		}
		s.logger.Error().Err(err).Msg("create user failed")
		s.writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (s *Server) handleDisableUser(w http.ResponseWriter, r *http.Request) {
	s.setUserDisabled(w, r, true)
}

func (s *Server) handleEnableUser(w http.ResponseWriter, r *http.Request) {
	s.setUserDisabled(w, r, false)
}

func (s *Server) setUserDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	if err := s.users.SetDisabled(chi.URLParam(r, "id"), disabled); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.writeError(w, "user not found", http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Msg("update user failed")
		s.writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
