package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mikepea/shortcode/pkg/shortcode/config"
	"github.com/mikepea/shortcode/pkg/shortcode/logger"
)

func TestKey(t *testing.T) {
	if got := Key("abc1234"); got != "shortcode:link:abc1234" {
		t.Errorf("Expected key 'shortcode:link:abc1234', got %q", got)
	}
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}

	if err := c.Set(ctx, "abc1234", "https://example.com"); err != nil {
		t.Errorf("Expected no error from Set, got %v", err)
	}
	target, ok, err := c.Get(ctx, "abc1234")
	if err != nil || ok || target != "" {
		t.Errorf("Expected a miss, got target=%q ok=%v err=%v", target, ok, err)
	}
	if err := c.Invalidate(ctx, "abc1234"); err != nil {
		t.Errorf("Expected no error from Invalidate, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.RedisConfig{
		Addr:           "localhost:6379",
		Password:       "pw",
		DB:             2,
		ConnectTimeout: time.Second,
	})
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if opts.ConnectTimeout != time.Second {
		t.Errorf("Expected connect timeout 1s, got %v", opts.ConnectTimeout)
	}
}

func TestConnectValidatesOptions(t *testing.T) {
	valid := ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        time.Millisecond,
		PingTimeout:    time.Millisecond,
	}

	tests := []struct {
		name   string
		mutate func(o *ConnectOptions)
		want   string
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }, "address"},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }, "ConnectTimeout"},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }, "RetryInterval"},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }, "MaxWait"},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }, "PingTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			_, err := Connect(context.Background(), opts, logger.Nop())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConnectGivesUpWhenUnreachable(t *testing.T) {
	opts := ConnectOptions{
		// Port 1 is reserved and refuses connections.
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
	}

	start := time.Now()
	client, err := Connect(context.Background(), opts, logger.Nop())
	if err == nil {
		client.Close()
		t.Fatal("Expected error connecting to unreachable redis")
	}
	if !strings.Contains(err.Error(), "redis unavailable") {
		t.Errorf("Expected 'redis unavailable' error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected Connect to give up near the timeout, took %v", elapsed)
	}
}
