package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type item struct {
	data      []byte
	expiresAt time.Time
}

// LRU 프로세스 로컬 캐시. 항목마다 만료 시간을 같이 둔다.
type LRU struct {
	lruCache *lru.Cache[string, item]
	ttl      time.Duration
	now      func() time.Time
}

func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRU{lruCache: l, ttl: ttl, now: time.Now}, nil
}

func (c *LRU) Get(_ context.Context, key string, dest any) (bool, error) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return false, nil
	}
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(val.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *LRU) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.lruCache.Add(key, item{data: b, expiresAt: c.now().Add(c.ttl)})
	return nil
}

func (c *LRU) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.lruCache.Remove(key)
	}
	return nil
}
