package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/treefix50/playhead/internal/session"
	"github.com/treefix50/playhead/internal/user"
)

// UserItemData loads the playback record for one user and item. An absent
// record is the zero value, not an error.
func (s *Store) UserItemData(userID, itemKey string) (session.UserItemData, error) {
	if s == nil || s.db == nil {
		return session.UserItemData{}, fmt.Errorf("storage: missing database connection")
	}

	var data session.UserItemData
	var played int
	var lastPlayedAt int64
	err := s.db.QueryRow(`
		SELECT play_count, played, last_played_at, position_ticks
		FROM user_items
		WHERE user_id = ? AND item_key = ?
	`, userID, itemKey).Scan(&data.PlayCount, &played, &lastPlayedAt, &data.PositionTicks)
	if err != nil {
		if err == sql.ErrNoRows {
			return session.UserItemData{}, nil
		}
		return session.UserItemData{}, err
	}
	data.Played = played != 0
	if lastPlayedAt > 0 {
		data.LastPlayedAt = time.Unix(lastPlayedAt, 0)
	}
	return data, nil
}

// SaveUserItemData upserts the playback record for one user and item.
func (s *Store) SaveUserItemData(userID, itemKey string, data session.UserItemData) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`
		INSERT INTO user_items (user_id, item_key, play_count, played, last_played_at, position_ticks)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, item_key) DO UPDATE SET
			play_count = excluded.play_count,
			played = excluded.played,
			last_played_at = excluded.last_played_at,
			position_ticks = excluded.position_ticks
	`, userID, itemKey, data.PlayCount, boolInt(data.Played), unixOrZero(data.LastPlayedAt), data.PositionTicks)
	return err
}

// SaveUser persists the user's current account state.
func (s *Store) SaveUser(u *user.User) error {
	if u == nil {
		return fmt.Errorf("storage: nil user")
	}
	return s.UpdateUser(*u)
}

// ResumeItems returns the item keys a user can resume, most recently played
// first.
func (s *Store) ResumeItems(userID string, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage: missing database connection")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT item_key
		FROM user_items
		WHERE user_id = ? AND position_ticks > 0
		ORDER BY last_played_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
