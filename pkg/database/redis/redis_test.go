//go:build !integration

package redis

import (
	"clanManager/pkg/config"
	"testing"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{RedisHost: "cache", RedisPort: "6380", RedisPassword: "pw", RedisDB: 2})

	if opts.Addr != "cache:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 || opts.Password != "pw" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestClose_NilClient(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
