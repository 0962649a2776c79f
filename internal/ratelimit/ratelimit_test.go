package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemory_AllowsUpToLimitPerWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !m.Allow(ctx, "login:1.2.3.4", 3, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if m.Allow(ctx, "login:1.2.3.4", 3, time.Minute) {
		t.Fatal("fourth request should be limited")
	}
	if !m.Allow(ctx, "login:5.6.7.8", 3, time.Minute) {
		t.Fatal("other keys have their own window")
	}

	now = now.Add(time.Minute + time.Second)
	if !m.Allow(ctx, "login:1.2.3.4", 3, time.Minute) {
		t.Fatal("new window should reset the counter")
	}
}

func TestMemory_IgnoresDegenerateInput(t *testing.T) {
	m := NewMemory()
	cases := []struct {
		key    string
		limit  int
		window time.Duration
	}{
		{"", 1, time.Minute},
		{"k", 0, time.Minute},
		{"k", 1, 0},
	}
	for _, tc := range cases {
		for i := 0; i < 5; i++ {
			if !m.Allow(context.Background(), tc.key, tc.limit, tc.window) {
				t.Fatalf("%+v should always be allowed", tc)
			}
		}
	}
}

func TestRedis_NilFailsOpen(t *testing.T) {
	var l *Redis
	if !l.Allow(context.Background(), "k", 1, time.Minute) {
		t.Fatal("nil limiter should allow")
	}
}
