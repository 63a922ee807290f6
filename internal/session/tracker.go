package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/treefix50/playhead/internal/user"
)

// activityPersistInterval bounds how often a user's last-activity timestamp
// is written to the store. Activity inside the window only updates the
// in-memory timestamps; the stored value catches up on the next report that
// crosses the window.
const activityPersistInterval = 10 * time.Second

// Tracker turns client heartbeat and authentication reports into session
// handles, and keeps user last-activity timestamps persisted at a bounded
// rate.
type Tracker struct {
	sessions *Store
	data     DataStore
	now      func() time.Time

	// mu serializes the debounce read-modify-write on user timestamps.
	mu sync.Mutex
}

// NewTracker creates an activity tracker over the given registry and store.
func NewTracker(sessions *Store, data DataStore) *Tracker {
	return &Tracker{
		sessions: sessions,
		data:     data,
		now:      time.Now,
	}
}

// RecordActivity obtains or refreshes the session for the reporting client
// and stamps its activity time. u may be nil for anonymous connections, in
// which case nothing is persisted.
func (t *Tracker) RecordActivity(clientType, deviceID, appVersion, deviceName string, u *user.User) (*Session, error) {
	switch {
	case clientType == "":
		return nil, fmt.Errorf("%w: client type is required", ErrInvalidArgument)
	case deviceID == "":
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidArgument)
	case appVersion == "":
		return nil, fmt.Errorf("%w: app version is required", ErrInvalidArgument)
	case deviceName == "":
		return nil, fmt.Errorf("%w: device name is required", ErrInvalidArgument)
	}

	if u != nil && u.Disabled {
		return nil, fmt.Errorf("%w: user %s is not allowed access", ErrAccountDisabled, u.Name)
	}

	now := t.now()
	sess := t.sessions.GetOrCreate(clientType, deviceID, appVersion, deviceName, u)
	sess.touch(now)

	if u == nil {
		return sess, nil
	}

	t.mu.Lock()
	previous := u.LastActivity
	u.LastActivity = now
	t.mu.Unlock()

	if !previous.IsZero() && now.Sub(previous) < activityPersistInterval {
		return sess, nil
	}

	if err := t.data.SaveUser(u); err != nil {
		return nil, fmt.Errorf("%w: save user %s: %v", ErrPersistence, u.ID, err)
	}
	return sess, nil
}
