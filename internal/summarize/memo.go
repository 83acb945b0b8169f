package summarize

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type memoEntry struct {
	bullets   []string
	expiresAt time.Time
}

// memoCache remembers shaped bullets per instruction+input hash. Expired
// entries are pruned on write; no background goroutine, since a one-shot run
// exits anyway.
type memoCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoEntry
}

func newMemoCache(ttl time.Duration) *memoCache {
	return &memoCache{
		ttl:   ttl,
		items: make(map[string]memoEntry),
	}
}

func memoKey(instructions, input string) string {
	h := sha256.New()
	h.Write([]byte(instructions))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *memoCache) get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.bullets, true
}

func (c *memoCache) set(key string, bullets []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	c.items[key] = memoEntry{bullets: bullets, expiresAt: now.Add(c.ttl)}
}
