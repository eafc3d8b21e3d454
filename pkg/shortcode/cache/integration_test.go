package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mikepea/shortcode/pkg/shortcode/logger"
)

// TestRedisIntegration runs against a real server when SHORTCODE_TEST_REDIS_ADDR is set.
func TestRedisIntegration(t *testing.T) {
	addr := os.Getenv("SHORTCODE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping redis integration test. Set SHORTCODE_TEST_REDIS_ADDR to run.")
	}

	ctx := context.Background()
	client, err := Connect(ctx, ConnectOptions{
		Addr:           addr,
		ConnectTimeout: 5 * time.Second,
		RetryInterval:  100 * time.Millisecond,
		MaxWait:        time.Second,
		PingTimeout:    time.Second,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	c := NewRedis(client, time.Minute)
	code := "integration01"
	defer client.Del(ctx, Key(code))

	if _, ok, err := c.Get(ctx, code); err != nil || ok {
		t.Fatalf("Expected a miss before Set, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, code, "https://example.com"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	target, ok, err := c.Get(ctx, code)
	if err != nil || !ok || target != "https://example.com" {
		t.Errorf("Expected cached target, got target=%q ok=%v err=%v", target, ok, err)
	}

	ttl, err := client.TTL(ctx, Key(code)).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Expected TTL within a minute, got %v", ttl)
	}

	if err := c.Invalidate(ctx, code); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, code); ok {
		t.Error("Expected a miss after Invalidate")
	}

	// A late Set from a redirect that read the row before the write must not
	// replace the tombstone.
	if err := c.Set(ctx, code, "https://stale.example.com"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if target, ok, _ := c.Get(ctx, code); ok {
		t.Errorf("Expected tombstone to survive a late Set, got %q", target)
	}
}
