package user

import (
	"sync"
	"time"
)

// TokenCache provides an in-memory cache for token validation so that every
// authenticated request does not hit the database.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[string]*cachedToken
	ttl    time.Duration
}

type cachedToken struct {
	token     *Token
	expiresAt time.Time
	cachedAt  time.Time
}

// NewTokenCache creates a new token cache with the specified TTL.
func NewTokenCache(ttl time.Duration) *TokenCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &TokenCache{
		tokens: make(map[string]*cachedToken),
		ttl:    ttl,
	}
}

// Get retrieves a token from the cache.
func (c *TokenCache) Get(value string) (*Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.tokens[value]
	if !exists {
		return nil, false
	}
	if time.Now().After(cached.cachedAt.Add(c.ttl)) {
		return nil, false
	}
	if time.Now().After(cached.expiresAt) {
		return nil, false
	}
	return cached.token, true
}

// Set stores a token in the cache.
func (c *TokenCache) Set(token *Token) {
	if token == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[token.Value] = &cachedToken{
		token:     token,
		expiresAt: token.ExpiresAt,
		cachedAt:  time.Now(),
	}
}

// Delete removes a token from the cache.
func (c *TokenCache) Delete(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tokens, value)
}

// DeleteByUserID removes all cached tokens for a specific user.
func (c *TokenCache) DeleteByUserID(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for value, cached := range c.tokens {
		if cached.token.UserID == userID {
			delete(c.tokens, value)
		}
	}
}

// Size returns the number of cached tokens.
func (c *TokenCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.tokens)
}

// Cleanup removes expired entries.
func (c *TokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for value, cached := range c.tokens {
		if now.After(cached.cachedAt.Add(c.ttl)) || now.After(cached.expiresAt) {
			delete(c.tokens, value)
		}
	}
}
