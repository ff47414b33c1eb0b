package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New()
	c.Set("values:local", map[string]any{"replicas": 2}, time.Minute)

	got, ok := c.Get("values:local")
	if !ok {
		t.Fatal("expected hit")
	}
	tree, ok := got.(map[string]any)
	if !ok || tree["replicas"] != 2 {
		t.Errorf("got %v", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := New()
	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiryEvictsLazily(t *testing.T) {
	c := New()
	c.Set("short", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected miss after TTL")
	}
	// The expired entry is gone for good, not just hidden.
	c.mu.RLock()
	_, still := c.items["short"]
	c.mu.RUnlock()
	if still {
		t.Error("expired entry not evicted")
	}
}

func TestSetReplaces(t *testing.T) {
	c := New()
	c.Set("key", "old", time.Minute)
	c.Set("key", "new", time.Minute)

	got, ok := c.Get("key")
	if !ok || got != "new" {
		t.Errorf("got %v, want new", got)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key still present")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("cleared key still present")
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New()
	c.Set("values:local", 1, time.Minute)
	c.Set("values:prod", 2, time.Minute)
	c.Set("other", 3, time.Minute)

	c.Invalidate("values:")

	if _, ok := c.Get("values:local"); ok {
		t.Error("prefixed key survived invalidation")
	}
	if _, ok := c.Get("values:prod"); ok {
		t.Error("prefixed key survived invalidation")
	}
	if _, ok := c.Get("other"); !ok {
		t.Error("unrelated key was invalidated")
	}
}
