package user

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu     sync.Mutex
	users  map[string]User
	tokens map[string]Token
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]User), tokens: make(map[string]Token)}
}

func (m *memStore) CreateUser(u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; exists {
		return ErrUserExists
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUser(id string) (*User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (m *memStore) GetUserByName(name string) (*User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name {
			u := u
			return &u, true, nil
		}
	}
	return nil, false, nil
}

func (m *memStore) UpdateUser(u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) ListUsers() ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *memStore) CountUsers() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *memStore) CreateToken(t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Value] = t
	return nil
}

func (m *memStore) GetToken(value string) (*Token, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[value]
	if !ok {
		return nil, false, nil
	}
	return &t, true, nil
}

func (m *memStore) DeleteToken(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, value)
	return nil
}

func (m *memStore) DeleteUserTokens(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for value, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, value)
		}
	}
	return nil
}

func (m *memStore) DeleteExpiredTokens(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for value, t := range m.tokens {
		if t.ExpiresAt.Before(now) {
			delete(m.tokens, value)
		}
	}
	return nil
}

func TestInitializeAdmin(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, time.Hour)

	password, err := manager.InitializeAdmin()
	require.NoError(t, err)
	require.NotEmpty(t, password)

	admin, ok, err := store.GetUserByName("admin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, admin.IsAdmin)
	assert.True(t, VerifyPassword(password, admin.PasswordHash))

	// Second call is a no-op.
	password, err = manager.InitializeAdmin()
	require.NoError(t, err)
	assert.Empty(t, password)
}

func TestLoginAndValidate(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, time.Hour)

	_, err := manager.CreateUser("alice", "secret", false)
	require.NoError(t, err)

	_, err = manager.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = manager.Login("nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := manager.Login("alice", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token.Value)

	validated, err := manager.ValidateToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, token.UserID, validated.UserID)

	require.NoError(t, manager.Logout(token.Value))
	_, err = manager.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginDisabledAccount(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, time.Hour)

	created, err := manager.CreateUser("mallory", "secret", false)
	require.NoError(t, err)
	require.NoError(t, manager.SetDisabled(created.ID, true))

	_, err = manager.Login("mallory", "secret")
	require.ErrorIs(t, err, ErrAccountDisabled)
	assert.ErrorContains(t, err, "mallory")
}

func TestDisableRevokesTokens(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, time.Hour)

	created, err := manager.CreateUser("alice", "secret", false)
	require.NoError(t, err)
	token, err := manager.Login("alice", "secret")
	require.NoError(t, err)

	require.NoError(t, manager.SetDisabled(created.ID, true))

	_, err = manager.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCreateUserDuplicate(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, time.Hour)

	_, err := manager.CreateUser("alice", "secret", false)
	require.NoError(t, err)
	_, err = manager.CreateUser("alice", "other", false)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestValidateTokenExpiry(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, time.Hour)

	expired := Token{
		Value:     "stale",
		UserID:    "u1",
		UserName:  "alice",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateToken(expired))

	_, err := manager.ValidateToken("stale")
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The expired token was removed from the store.
	_, ok, err := store.GetToken("stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenCache(t *testing.T) {
	cache := NewTokenCache(time.Minute)

	token := &Token{
		Value:     "tok",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	cache.Set(token)

	got, found := cache.Get("tok")
	require.True(t, found)
	assert.Equal(t, "u1", got.UserID)

	cache.DeleteByUserID("u1")
	_, found = cache.Get("tok")
	assert.False(t, found)
	assert.Equal(t, 0, cache.Size())
}
