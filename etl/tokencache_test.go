package etl

import (
	"testing"
	"time"
)

func TestMemoryTokenCache_RoundTrip(t *testing.T) {
	cache := &memoryTokenCache{}

	if _, ok := cache.Get(); ok {
		t.Fatal("expected empty cache to miss")
	}

	cache.SetWithExpiry("tok-1", time.Hour)
	token, ok := cache.Get()
	if !ok || token != "tok-1" {
		t.Fatalf("expected tok-1, got %q (ok=%v)", token, ok)
	}

	cache.Invalidate()
	if _, ok := cache.Get(); ok {
		t.Fatal("expected invalidated cache to miss")
	}
}

func TestMemoryTokenCache_ExpiryBuffer(t *testing.T) {
	cache := &memoryTokenCache{}

	// Inside the renewal buffer: still valid on the wire, but treated as
	// expired so the next request gets a fresh token.
	cache.SetWithExpiry("tok-2", tokenExpiryBuffer-time.Minute)
	if _, ok := cache.Get(); ok {
		t.Fatal("expected token inside expiry buffer to miss")
	}

	cache.SetWithExpiry("tok-3", tokenExpiryBuffer+time.Hour)
	if token, ok := cache.Get(); !ok || token != "tok-3" {
		t.Fatalf("expected tok-3, got %q (ok=%v)", token, ok)
	}
}
