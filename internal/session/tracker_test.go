package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefix50/playhead/internal/user"
)

func newTestTracker(data *fakeData) (*Tracker, *Store) {
	store := NewStore()
	tracker := NewTracker(store, data)
	return tracker, store
}

func TestRecordActivityValidation(t *testing.T) {
	tracker, store := newTestTracker(newFakeData())

	tests := []struct {
		name       string
		clientType string
		deviceID   string
		appVersion string
		deviceName string
	}{
		{"empty client type", "", "d1", "1.0", "Device"},
		{"empty device id", "web", "", "1.0", "Device"},
		{"empty app version", "web", "d1", "", "Device"},
		{"empty device name", "web", "d1", "1.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := tracker.RecordActivity(tt.clientType, tt.deviceID, tt.appVersion, tt.deviceName, nil)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, sess)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestRecordActivityDisabledAccount(t *testing.T) {
	data := newFakeData()
	tracker, store := newTestTracker(data)
	u := &user.User{ID: "u1", Name: "mallory", Disabled: true}

	sess, err := tracker.RecordActivity("web", "d1", "1.0", "Device", u)
	require.ErrorIs(t, err, ErrAccountDisabled)
	assert.ErrorContains(t, err, "mallory")
	assert.Nil(t, sess)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, data.savedUserCount())
}

func TestRecordActivityStableIdentity(t *testing.T) {
	tracker, _ := newTestTracker(newFakeData())

	first, err := tracker.RecordActivity("web", "d1", "1.0", "Device", nil)
	require.NoError(t, err)
	second, err := tracker.RecordActivity("web", "d1", "1.0", "Device", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestRecordActivityAnonymousSkipsPersistence(t *testing.T) {
	data := newFakeData()
	tracker, _ := newTestTracker(data)

	_, err := tracker.RecordActivity("web", "d1", "1.0", "Device", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, data.savedUserCount())
}

func TestRecordActivityDebounce(t *testing.T) {
	data := newFakeData()
	tracker, _ := newTestTracker(data)

	now := time.Unix(1700000000, 0)
	tracker.now = func() time.Time { return now }

	u := &user.User{ID: "u1", Name: "alice"}

	// First report persists.
	_, err := tracker.RecordActivity("web", "d1", "1.0", "Device", u)
	require.NoError(t, err)
	assert.Equal(t, 1, data.savedUserCount())
	assert.Equal(t, now, u.LastActivity)

	// Reports inside the window only update memory.
	now = now.Add(3 * time.Second)
	_, err = tracker.RecordActivity("web", "d1", "1.0", "Device", u)
	require.NoError(t, err)
	assert.Equal(t, 1, data.savedUserCount())
	assert.Equal(t, now, u.LastActivity)

	// Crossing the window persists again.
	now = now.Add(activityPersistInterval)
	_, err = tracker.RecordActivity("web", "d1", "1.0", "Device", u)
	require.NoError(t, err)
	assert.Equal(t, 2, data.savedUserCount())
}

func TestRecordActivityPersistenceFailureSurfaced(t *testing.T) {
	data := newFakeData()
	data.failSaveUser = assert.AnError
	tracker, store := newTestTracker(data)

	u := &user.User{ID: "u1", Name: "alice"}
	_, err := tracker.RecordActivity("web", "d1", "1.0", "Device", u)
	require.ErrorIs(t, err, ErrPersistence)

	// The session itself was still created and stamped.
	assert.Equal(t, 1, store.Len())
}
