package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/AyushLimaye7/login-registration-dashboard/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestKV_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	kv := NewKV(client, "test")
	ctx := context.Background()

	if err := kv.Set(ctx, "token", "abc", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	val, found, err := kv.Get(ctx, "token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found || val != "" {
		t.Error("Expected miss when Redis disabled")
	}

	if err := kv.Delete(ctx, "token"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestKV_Key(t *testing.T) {
	kv := NewKV(&Client{}, "mmm-dashboard:session")
	if got := kv.Key("access_token"); got != "mmm-dashboard:session:access_token" {
		t.Errorf("Key() = %q", got)
	}
}

func TestKV_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	host, port := splitAddr(os.Getenv("REDIS_TEST_ADDR"))
	cfg := &config.Config{Redis: config.RedisConfig{Host: host, Port: port, Enabled: true}}

	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	kv := NewKV(client, "test")
	ctx := context.Background()

	if err := kv.Set(ctx, "token", "abc", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, found, err := kv.Get(ctx, "token")
	if err != nil || !found || val != "abc" {
		t.Fatalf("Get() = %q, %v, %v", val, found, err)
	}
	if err := kv.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := kv.Get(ctx, "token"); found {
		t.Error("Expected key to be deleted")
	}
}

func splitAddr(addr string) (string, string) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:]
		}
	}
	return addr, "6379"
}
