/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/cache"
)

const tokenKeyPrefix = "modelstore:sdb:token:"

// TokenCache remembers continuation tokens by result position so a later
// window of the same query can resume near its offset instead of paging
// from the start. Token values live in a cache provider with a TTL; the
// positions known per query are indexed locally.
type TokenCache struct {
	provider cache.Provider
	ttl      time.Duration

	mu        sync.Mutex
	positions map[string][]int
}

// NewTokenCache stores tokens in p for ttl. A nil provider caches nothing.
func NewTokenCache(p cache.Provider, ttl time.Duration) *TokenCache {
	return &TokenCache{
		provider:  cache.OrNop(p),
		ttl:       ttl,
		positions: make(map[string][]int),
	}
}

// queryKey identifies a query and the page size it was walked with. Page
// size fixes where pages start, so tokens are only valid for the same one.
func queryKey(query string, pageSize int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(query)).String() + ":" + strconv.Itoa(pageSize)
}

func tokenKey(qk string, pos int) string {
	return tokenKeyPrefix + qk + ":" + strconv.Itoa(pos)
}

// Store records that token resumes query at position pos.
func (t *TokenCache) Store(ctx context.Context, query string, pageSize, pos int, token string) {
	qk := queryKey(query, pageSize)
	if err := t.provider.Set(ctx, tokenKey(qk, pos), []byte(token), t.ttl); err != nil {
		log.WithError(err).Warn("failed to cache continuation token")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.positions[qk]
	i := sort.SearchInts(list, pos)
	if i < len(list) && list[i] == pos {
		return
	}
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = pos
	t.positions[qk] = list
}

// Nearest returns the greatest known position not after offset and its
// token. It returns 0 and "" when nothing usable is cached. Positions whose
// token expired are forgotten.
func (t *TokenCache) Nearest(ctx context.Context, query string, pageSize, offset int) (int, string) {
	qk := queryKey(query, pageSize)

	t.mu.Lock()
	list := append([]int(nil), t.positions[qk]...)
	t.mu.Unlock()

	for i := sort.SearchInts(list, offset+1) - 1; i >= 0; i-- {
		pos := list[i]
		b, ok, err := t.provider.Get(ctx, tokenKey(qk, pos))
		if err != nil {
			log.WithError(err).Warn("failed to read continuation token")
			continue
		}
		if ok && len(b) > 0 {
			return pos, string(b)
		}
		t.forget(qk, pos)
	}
	return 0, ""
}

func (t *TokenCache) forget(qk string, pos int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.positions[qk]
	i := sort.SearchInts(list, pos)
	if i < len(list) && list[i] == pos {
		t.positions[qk] = append(list[:i], list[i+1:]...)
	}
	if len(t.positions[qk]) == 0 {
		delete(t.positions, qk)
	}
}

// Reset forgets every indexed position.
func (t *TokenCache) Reset() {
	t.mu.Lock()
	t.positions = make(map[string][]int)
	t.mu.Unlock()
}
