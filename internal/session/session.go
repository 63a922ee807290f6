// Package session coordinates playback sessions: it tracks connected
// clients, applies the resume-position policy to reported progress, persists
// per-user playback records and fans lifecycle events out to subscribers.
package session

import (
	"sync"
	"time"

	"github.com/treefix50/playhead/internal/media"
	"github.com/treefix50/playhead/internal/user"
)

// Session is the in-memory record of one logical client connection. A
// session lives for the whole process; it is created on the first activity
// report for its (client type, device id, app version) key and updated on
// every subsequent report.
//
// Identity fields are immutable after creation. Mutable state is guarded by
// an internal mutex so that listing never races with playback reports;
// concurrent writers to the same session resolve last-writer-wins.
type Session struct {
	ID         string
	ClientType string
	DeviceID   string
	AppVersion string

	mu            sync.RWMutex
	deviceName    string
	user          *user.User
	nowPlaying    *media.Item
	positionTicks *int64
	isPaused      bool
	isMuted       bool
	lastActivity  time.Time
}

// Info is an immutable snapshot of a session, safe to hand to callers and
// serialize.
type Info struct {
	ID            string      `json:"id"`
	ClientType    string      `json:"clientType"`
	DeviceID      string      `json:"deviceId"`
	AppVersion    string      `json:"appVersion"`
	DeviceName    string      `json:"deviceName"`
	UserID        string      `json:"userId,omitempty"`
	UserName      string      `json:"userName,omitempty"`
	NowPlaying    *media.Item `json:"nowPlaying,omitempty"`
	PositionTicks *int64      `json:"positionTicks,omitempty"`
	IsPaused      bool        `json:"isPaused"`
	IsMuted       bool        `json:"isMuted"`
	LastActivity  time.Time   `json:"lastActivity"`
}

// Snapshot returns a consistent copy of the session's current state.
func (s *Session) Snapshot() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		ID:            s.ID,
		ClientType:    s.ClientType,
		DeviceID:      s.DeviceID,
		AppVersion:    s.AppVersion,
		DeviceName:    s.deviceName,
		NowPlaying:    s.nowPlaying,
		PositionTicks: s.positionTicks,
		IsPaused:      s.isPaused,
		IsMuted:       s.isMuted,
		LastActivity:  s.lastActivity,
	}
	if s.user != nil {
		info.UserID = s.user.ID
		info.UserName = s.user.Name
	}
	return info
}

// User returns the account currently associated with the session, or nil
// for an anonymous connection.
func (s *Session) User() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// NowPlaying returns the item the session is currently playing, if any.
func (s *Session) NowPlaying() *media.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowPlaying
}

// LastActivity returns the session's last activity timestamp.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *Session) refresh(deviceName string, u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceName = deviceName
	if u != nil {
		s.user = u
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now
}

func (s *Session) applyStart(item *media.Item, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowPlaying = item
	s.positionTicks = nil
	s.isPaused = false
	s.isMuted = false
	s.lastActivity = now
}

func (s *Session) applyProgress(item *media.Item, positionTicks *int64, isPaused, isMuted bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowPlaying = item
	s.positionTicks = positionTicks
	s.isPaused = isPaused
	s.isMuted = isMuted
	s.lastActivity = now
}

// applyStopped clears the now-playing state only when the stopped item
// matches what the session is currently playing. A late stop report for an
// item the session already moved past must not clobber newer state.
func (s *Session) applyStopped(item *media.Item, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now
	if s.nowPlaying == nil || s.nowPlaying.ID != item.ID {
		return
	}
	s.nowPlaying = nil
	s.positionTicks = nil
	s.isPaused = false
}
