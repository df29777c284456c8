package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/pim/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestNewFromRedis(t *testing.T) {
	if NewFromRedis(nil).Enabled() {
		t.Error("Expected nil client to be disabled")
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	defer rdb.Close()

	if !NewFromRedis(rdb).Enabled() {
		t.Error("Expected wrapped client to be enabled")
	}
}

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{Host: "cache", Port: "6380", Password: "pw", DB: 2})

	if opts.Addr != "cache:6380" {
		t.Errorf("Addr = %q, want cache:6380", opts.Addr)
	}
	if opts.Password != "pw" || opts.DB != 2 {
		t.Errorf("unexpected credentials: %+v", opts)
	}
	if opts.DialTimeout != connectTimeout {
		t.Errorf("DialTimeout = %v, want %v", opts.DialTimeout, connectTimeout)
	}
}

func TestPing_Disabled(t *testing.T) {
	client, err := New(&config.Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on disabled client = %v, want nil", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client = %v, want nil", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	values, err := cache.MGet(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("MGet() error = %v", err)
	}
	if len(values) != 0 {
		t.Errorf("Expected no values, got %d", len(values))
	}

	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestFamilyMaskKey(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"tshirt", "completeness:family_mask:tshirt"},
		{"camcorders", "completeness:family_mask:camcorders"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := FamilyMaskKey(tt.code); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
