// Package user manages accounts and API tokens for the coordinator's
// reporting surface.
package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccountDisabled    = errors.New("account disabled")
)

// User represents an account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never expose password hash
	IsAdmin      bool      `json:"isAdmin"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity,omitempty"`
}

// Token represents an issued API token.
type Token struct {
	Value     string    `json:"token"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store defines the persistence interface for accounts and tokens.
type Store interface {
	CreateUser(user User) error
	GetUser(id string) (*User, bool, error)
	GetUserByName(name string) (*User, bool, error)
	UpdateUser(user User) error
	ListUsers() ([]User, error)
	CountUsers() (int, error)

	CreateToken(token Token) error
	GetToken(value string) (*Token, bool, error)
	DeleteToken(value string) error
	DeleteUserTokens(userID string) error
	DeleteExpiredTokens(now time.Time) error
}

// Manager handles account and token operations.
type Manager struct {
	store    Store
	tokenTTL time.Duration
	cache    *TokenCache
}

// NewManager creates a new account manager.
func NewManager(store Store, tokenTTL time.Duration) *Manager {
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Manager{
		store:    store,
		tokenTTL: tokenTTL,
		cache:    NewTokenCache(5 * time.Minute),
	}
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateTokenValue generates a secure random token value.
func GenerateTokenValue() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback
		return uuid.NewString()
	}
	return hex.EncodeToString(bytes)
}

// GenerateAdminPassword generates a random password for the initial admin.
func GenerateAdminPassword() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("admin-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// InitializeAdmin creates the admin account if no users exist. It returns
// the generated password, or "" when an admin already existed.
func (m *Manager) InitializeAdmin() (string, error) {
	count, err := m.store.CountUsers()
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	password := GenerateAdminPassword()
	passwordHash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	admin := User{
		ID:           "admin",
		Name:         "admin",
		PasswordHash: passwordHash,
		IsAdmin:      true,
		CreatedAt:    time.Now(),
	}
	if err := m.store.CreateUser(admin); err != nil {
		return "", err
	}
	return password, nil
}

// Login authenticates a user and issues a token.
func (m *Manager) Login(name, password string) (*Token, error) {
	user, ok, err := m.store.GetUserByName(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrAccountDisabled, user.Name)
	}

	token := Token{
		Value:     GenerateTokenValue(),
		UserID:    user.ID,
		UserName:  user.Name,
		IsAdmin:   user.IsAdmin,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(m.tokenTTL),
	}
	if err := m.store.CreateToken(token); err != nil {
		return nil, err
	}
	m.cache.Set(&token)
	return &token, nil
}

// Logout invalidates a token.
func (m *Manager) Logout(value string) error {
	m.cache.Delete(value)
	return m.store.DeleteToken(value)
}

// ValidateToken validates a token value, consulting the cache first.
func (m *Manager) ValidateToken(value string) (*Token, error) {
	if token, found := m.cache.Get(value); found {
		return token, nil
	}

	token, ok, err := m.store.GetToken(value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	if time.Now().After(token.ExpiresAt) {
		_ = m.store.DeleteToken(value)
		m.cache.Delete(value)
		return nil, ErrTokenExpired
	}

	m.cache.Set(token)
	return token, nil
}

// CreateUser creates a new account.
func (m *Manager) CreateUser(name, password string, isAdmin bool) (*User, error) {
	_, exists, err := m.store.GetUserByName(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now(),
	}
	if err := m.store.CreateUser(u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetDisabled enables or disables an account. Disabling revokes all of the
// account's tokens.
func (m *Manager) SetDisabled(userID string, disabled bool) error {
	u, ok, err := m.store.GetUser(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	u.Disabled = disabled
	if err := m.store.UpdateUser(*u); err != nil {
		return err
	}
	if disabled {
		m.cache.DeleteByUserID(userID)
		return m.store.DeleteUserTokens(userID)
	}
	return nil
}

// GetUser fetches a single account.
func (m *Manager) GetUser(id string) (*User, error) {
	u, ok, err := m.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListUsers lists all accounts.
func (m *Manager) ListUsers() ([]User, error) {
	return m.store.ListUsers()
}

// CleanupExpiredTokens removes expired tokens from the store.
func (m *Manager) CleanupExpiredTokens() error {
	return m.store.DeleteExpiredTokens(time.Now())
}
