package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request should be rejected")
	}
}

func TestClientsIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("second client should have its own window")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("first client should be over its limit")
	}
}

func TestWindowSlides(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("c") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("c") {
		t.Fatal("second request inside window should be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if !l.Allow("c") {
		t.Fatal("request after window should be allowed")
	}
}

func TestEmptyClientNeverLimited(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatal("empty client key must not be limited")
		}
	}
}
