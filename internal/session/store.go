package session

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/treefix50/playhead/internal/user"
)

// Store is the keyed registry of live sessions. One session exists per
// (client type, device id, app version) key; get-or-create is atomic so that
// concurrent first reports for the same key never yield two sessions.
// Sessions are never removed.
type Store struct {
	mu    sync.RWMutex
	byKey map[string]*Session
	byID  map[string]*Session
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{
		byKey: make(map[string]*Session),
		byID:  make(map[string]*Session),
	}
}

func sessionKey(clientType, deviceID, appVersion string) string {
	return strings.Join([]string{clientType, deviceID, appVersion}, "\x00")
}

// GetOrCreate returns the session for the given key, creating it if absent.
// On a hit the session's device name and user association are refreshed.
func (s *Store) GetOrCreate(clientType, deviceID, appVersion, deviceName string, u *user.User) *Session {
	key := sessionKey(clientType, deviceID, appVersion)

	s.mu.RLock()
	existing, ok := s.byKey[key]
	s.mu.RUnlock()
	if ok {
		existing.refresh(deviceName, u)
		return existing
	}

	s.mu.Lock()
	// Re-check: another caller may have created it between the locks.
	if existing, ok := s.byKey[key]; ok {
		s.mu.Unlock()
		existing.refresh(deviceName, u)
		return existing
	}

	sess := &Session{
		ID:         uuid.NewString(),
		ClientType: clientType,
		DeviceID:   deviceID,
		AppVersion: appVersion,
		deviceName: deviceName,
		user:       u,
	}
	s.byKey[key] = sess
	s.byID[sess.ID] = sess
	s.mu.Unlock()

	activeSessions.Set(float64(s.Len()))
	return sess
}

// Get returns the session with the given id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	return sess, ok
}

// Len returns the number of registered sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// List returns a snapshot of all sessions ordered by last activity,
// most recent first. The returned slice is computed fresh on every call.
func (s *Store) List() []Info {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.byID))
	for _, sess := range s.byID {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Snapshot())
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].LastActivity.After(infos[j].LastActivity)
	})
	return infos
}
