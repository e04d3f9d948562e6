package generations

import (
	"context"
	"sync"

	"resume-generator/resume/model"
)

// MemoryCache is a Cache safe for concurrent use.
type MemoryCache struct {
	mu    sync.RWMutex
	byKey map[string]Result
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{byKey: make(map[string]Result)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.byKey[key]
	return res, ok, nil
}

func (c *MemoryCache) GetDraft(ctx context.Context, draftKey string) (model.Draft, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Draft{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, res := range c.byKey {
		if res.DraftKey == draftKey {
			return res.Draft, true, nil
		}
	}
	return model.Draft{}, false, nil
}

func (c *MemoryCache) Put(ctx context.Context, res Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byKey[res.Key]; exists {
		return nil
	}
	c.byKey[res.Key] = res
	return nil
}

func (c *MemoryCache) InvalidateUser(ctx context.Context, userID string) error {
	return c.drop(ctx, func(res Result) bool { return res.UserID == userID })
}

func (c *MemoryCache) PurgeStale(ctx context.Context, userID, fingerprint string) error {
	return c.drop(ctx, func(res Result) bool {
		return res.UserID == userID && res.Fingerprint != fingerprint
	})
}

func (c *MemoryCache) drop(ctx context.Context, match func(Result) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, res := range c.byKey {
		if match(res) {
			delete(c.byKey, key)
		}
	}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
