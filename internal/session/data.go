package session

import (
	"time"

	"github.com/treefix50/playhead/internal/user"
)

// UserItemData is the per-(user, item) playback record owned by the backing
// store. The zero value describes an item the user has never played.
type UserItemData struct {
	PlayCount     int       `json:"playCount"`
	Played        bool      `json:"played"`
	LastPlayedAt  time.Time `json:"lastPlayedAt,omitempty"`
	PositionTicks int64     `json:"positionTicks"`
}

// DataStore is the persistence contract the coordinator writes through.
// Item keys come from media.Item.Key.
type DataStore interface {
	// UserItemData loads the playback record for one user and item. A record
	// that does not exist yet is returned as the zero value, not an error.
	UserItemData(userID, itemKey string) (UserItemData, error)
	// SaveUserItemData upserts the playback record for one user and item.
	SaveUserItemData(userID, itemKey string, data UserItemData) error
	// SaveUser persists the user's current account state, including the
	// last-activity timestamp.
	SaveUser(u *user.User) error
}
