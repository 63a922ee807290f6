package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/treefix50/playhead/internal/user"
)

func scanUser(row *sql.Row) (*user.User, bool, error) {
	var u user.User
	var isAdmin, disabled int
	var createdAt, lastActivity int64
	err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &isAdmin, &disabled, &createdAt, &lastActivity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	u.IsAdmin = isAdmin != 0
	u.Disabled = disabled != 0
	u.CreatedAt = time.Unix(createdAt, 0)
	if lastActivity > 0 {
		u.LastActivity = time.Unix(lastActivity, 0)
	}
	return &u, true, nil
}

func (s *Store) CreateUser(u user.User) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, password_hash, is_admin, disabled, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.PasswordHash, boolInt(u.IsAdmin), boolInt(u.Disabled), u.CreatedAt.Unix(), unixOrZero(u.LastActivity))
	return err
}

func (s *Store) GetUser(id string) (*user.User, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage: missing database connection")
	}
	return scanUser(s.db.QueryRow(`
		SELECT id, name, password_hash, is_admin, disabled, created_at, last_activity
		FROM users
		WHERE id = ?
	`, id))
}

func (s *Store) GetUserByName(name string) (*user.User, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage: missing database connection")
	}
	return scanUser(s.db.QueryRow(`
		SELECT id, name, password_hash, is_admin, disabled, created_at, last_activity
		FROM users
		WHERE name = ?
	`, name))
}

func (s *Store) UpdateUser(u user.User) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`
		UPDATE users
		SET name = ?, password_hash = ?, is_admin = ?, disabled = ?, last_activity = ?
		WHERE id = ?
	`, u.Name, u.PasswordHash, boolInt(u.IsAdmin), boolInt(u.Disabled), unixOrZero(u.LastActivity), u.ID)
	return err
}

func (s *Store) ListUsers() ([]user.User, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage: missing database connection")
	}

	rows, err := s.db.Query(`
		SELECT id, name, password_hash, is_admin, disabled, created_at, last_activity
		FROM users
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		var isAdmin, disabled int
		var createdAt, lastActivity int64
		if err := rows.Scan(&u.ID, &u.Name, &u.PasswordHash, &isAdmin, &disabled, &createdAt, &lastActivity); err != nil {
			return nil, err
		}
		u.IsAdmin = isAdmin != 0
		u.Disabled = disabled != 0
		u.CreatedAt = time.Unix(createdAt, 0)
		if lastActivity > 0 {
			u.LastActivity = time.Unix(lastActivity, 0)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (s *Store) CountUsers() (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage: missing database connection")
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CreateToken(t user.Token) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`
		INSERT INTO tokens (value, user_id, user_name, is_admin, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Value, t.UserID, t.UserName, boolInt(t.IsAdmin), t.CreatedAt.Unix(), t.ExpiresAt.Unix())
	return err
}

func (s *Store) GetToken(value string) (*user.Token, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage: missing database connection")
	}

	var t user.Token
	var isAdmin int
	var createdAt, expiresAt int64
	err := s.db.QueryRow(`
		SELECT value, user_id, user_name, is_admin, created_at, expires_at
		FROM tokens
		WHERE value = ?
	`, value).Scan(&t.Value, &t.UserID, &t.UserName, &isAdmin, &createdAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	t.IsAdmin = isAdmin != 0
	t.CreatedAt = time.Unix(createdAt, 0)
	t.ExpiresAt = time.Unix(expiresAt, 0)
	return &t, true, nil
}

func (s *Store) DeleteToken(value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`DELETE FROM tokens WHERE value = ?`, value)
	return err
}

func (s *Store) DeleteUserTokens(userID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`DELETE FROM tokens WHERE user_id = ?`, userID)
	return err
}

func (s *Store) DeleteExpiredTokens(now time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: missing database connection")
	}
	_, err := s.db.Exec(`DELETE FROM tokens WHERE expires_at < ?`, now.Unix())
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
