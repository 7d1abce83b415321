package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Luismorlan/instag/model"
)

// FakePageCache is an in memory PageCache that never expires entries but
// records the ttl they were stored with.
type FakePageCache struct {
	mu      sync.Mutex
	Entries map[string][]model.RawPost
	TTLs    map[string]time.Duration
	SetErr  error
	Gets    int
}

func NewFakePageCache() *FakePageCache {
	return &FakePageCache{Entries: map[string][]model.RawPost{}, TTLs: map[string]time.Duration{}}
}

func (c *FakePageCache) Get(ctx context.Context, key string) ([]model.RawPost, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	posts, ok := c.Entries[key]
	return posts, ok, nil
}

func (c *FakePageCache) Set(ctx context.Context, key string, posts []model.RawPost, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SetErr != nil {
		return c.SetErr
	}
	c.Entries[key] = posts
	c.TTLs[key] = ttl
	return nil
}

func (c *FakePageCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, key)
}
