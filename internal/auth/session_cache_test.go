package auth

import (
	"fmt"
	"testing"
	"time"
)

func TestSessionCacheLookupAndStore(t *testing.T) {
	cache := NewSessionCache()

	if _, ok := cache.Lookup("token-a"); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	cache.Store("token-a", "owner-1", time.Now().Add(time.Hour))
	ownerID, ok := cache.Lookup("token-a")
	if !ok || ownerID != "owner-1" {
		t.Errorf("expected owner-1, got %q (ok=%v)", ownerID, ok)
	}
}

func TestSessionCacheExpiredEntryIsAMiss(t *testing.T) {
	cache := NewSessionCache()

	cache.Store("stale", "owner-1", time.Now().Add(-time.Second))
	if _, ok := cache.Lookup("stale"); ok {
		t.Error("expected an already-expired token not to be stored")
	}

	cache.Store("short", "owner-1", time.Now().Add(10*time.Millisecond))
	if _, ok := cache.Lookup("short"); !ok {
		t.Fatal("expected a hit before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Lookup("short"); ok {
		t.Error("expected a miss once the token's expiry passed")
	}
}

func TestSessionCacheIgnoresZeroExpiry(t *testing.T) {
	cache := NewSessionCache()

	cache.Store("no-exp", "owner-1", time.Time{})
	if _, ok := cache.Lookup("no-exp"); ok {
		t.Error("expected tokens without an expiry not to be cached")
	}
}

func TestSessionCacheMarkProvisionedOnce(t *testing.T) {
	cache := NewSessionCache()

	if !cache.MarkProvisioned("owner-1") {
		t.Error("first MarkProvisioned should report true")
	}
	if cache.MarkProvisioned("owner-1") {
		t.Error("second MarkProvisioned should report false")
	}
	if !cache.MarkProvisioned("owner-2") {
		t.Error("a different owner should be independent")
	}
}

func TestSessionCacheFlush(t *testing.T) {
	cache := NewSessionCache()
	cache.Store("token-a", "owner-1", time.Now().Add(time.Hour))
	cache.MarkProvisioned("owner-1")

	cache.Flush()

	if _, ok := cache.Lookup("token-a"); ok {
		t.Error("expected the token to be gone after Flush")
	}
	if !cache.MarkProvisioned("owner-1") {
		t.Error("expected provisioning marks to reset after Flush")
	}
}

func TestSessionCacheBounded(t *testing.T) {
	cache := NewSessionCache()
	expiresAt := time.Now().Add(time.Hour)
	for i := 0; i < maxSessions+10; i++ {
		cache.Store(fmt.Sprintf("token-%d", i), "owner", expiresAt)
	}
	if got := cache.Len(); got > maxSessions {
		t.Errorf("cache exceeded its bound: %d entries", got)
	}
}
