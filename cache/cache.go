/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
)

// Provider is a byte cache with per-entry TTL. A zero TTL means no expiry.
type Provider interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	// Flush drops every entry owned by the provider.
	Flush(ctx context.Context) error
}

// OrNop returns p, or a no-op provider when p is nil.
func OrNop(p Provider) Provider {
	if p == nil {
		return Nop{}
	}
	return p
}

// Nop caches nothing. Every Get misses.
type Nop struct{}

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Delete(context.Context, string) error                     { return nil }
func (Nop) Flush(context.Context) error                              { return nil }

// Open builds the provider selected by cfg. Redis providers are pinged
// before use and a failed ping is a configuration error.
func Open(ctx context.Context, cfg config.Cache) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "none", "nop":
		return Nop{}, nil
	case "memory":
		return NewMemory(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if errPing := client.Ping(ctxPing).Err(); errPing != nil {
			_ = client.Close()
			return nil, errors.NewConfigurationError("cache", "redis ping failed", errPing)
		}
		return NewRedis(client, cfg.Prefix), nil
	}
	return nil, errors.NewConfigurationError("cache", fmt.Sprintf("unknown cache type %q", cfg.Type), nil)
}
