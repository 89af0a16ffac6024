// Package cachetest connects tests to a local redis, skipping them when none is reachable.
package cachetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

func candidates() []*redis.Options {
	hosts := []string{env.GetEnv("CACHE_HOST", ""), "cache", "localhost"}
	port := env.GetEnv("CACHE_PORT", "6379")
	password := env.GetEnv("CACHE_PASSWORD", "")

	seen := map[string]bool{}
	var out []*redis.Options
	for _, h := range hosts {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, &redis.Options{Addr: fmt.Sprintf("%s:%s", h, port), Password: password})
	}
	return out
}

// NewClient returns a client on an isolated, flushed database. The test is
// skipped when no redis endpoint answers.
func NewClient(t testing.TB, db int) *redis.Client {
	t.Helper()

	var lastErr error
	for _, opts := range candidates() {
		opts.DB = db
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			lastErr = err
			continue
		}
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			_ = client.Close()
			t.Fatalf("failed to flush redis db %d: %v", db, err)
		}
		t.Cleanup(func() {
			_ = client.FlushDB(context.Background()).Err()
			_ = client.Close()
		})
		return client
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return nil
}
