package auth

import (
	"sync"
	"time"
)

// maxSessions bounds the cache; when it fills, the whole cache is dropped and
// entries are repopulated on the next verification.
const maxSessions = 4096

type session struct {
	ownerID   string
	expiresAt time.Time
}

// SessionCache remembers which owner a bearer token verified to, so repeated
// requests on the same token skip the JWKS round trip and the root-folder
// provisioning check.
//
// An entry is only served until its token's expiry claim; a hit past expiry
// is a miss, so an expired token always goes back through the verifier and
// is rejected there. Tokens without an expiry claim are never cached.
type SessionCache struct {
	mu       sync.RWMutex
	byToken  map[string]session
	verified map[string]struct{}
}

// NewSessionCache creates an empty session cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{
		byToken:  make(map[string]session),
		verified: make(map[string]struct{}),
	}
}

// Lookup returns the owner a token previously verified to. Entries whose
// token has expired are misses.
func (c *SessionCache) Lookup(token string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byToken[token]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.ownerID, true
}

// Store records a verified token for its owner until expiresAt. Tokens that
// are already expired, or carry no expiry, are not stored.
func (c *SessionCache) Store(token, ownerID string, expiresAt time.Time) {
	if expiresAt.IsZero() || !time.Now().Before(expiresAt) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.byToken) >= maxSessions {
		c.byToken = make(map[string]session)
	}
	c.byToken[token] = session{ownerID: ownerID, expiresAt: expiresAt}
}

// Provisioned reports whether the owner's root folder is known to exist.
func (c *SessionCache) Provisioned(ownerID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.verified[ownerID]
	return ok
}

// MarkProvisioned records that the owner's root folder exists. Returns true
// the first time it is called for an owner.
func (c *SessionCache) MarkProvisioned(ownerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.verified[ownerID]; ok {
		return false
	}
	c.verified[ownerID] = struct{}{}
	return true
}

// Flush drops all cached sessions.
func (c *SessionCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byToken = make(map[string]session)
	c.verified = make(map[string]struct{})
}

// Len reports how many tokens are cached.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byToken)
}
