package store

import (
	"context"
	"sync"

	"github.com/brizzai/agent-settings/internal/logger"
	"github.com/brizzai/agent-settings/internal/profile"
	"go.uber.org/zap"
)

// Cache holds the process-local copy of one user profile plus its load
// status. The first Get triggers exactly one automatic fetch; after that,
// Refresh is the only way consumers re-fetch. There is no retry, no polling
// and no cancellation of an in-flight fetch: overlapping calls race and the
// last result wins, matching the backend's own write semantics.
type Cache struct {
	client Client

	once sync.Once

	mu      sync.Mutex
	profile *profile.Profile
	err     error
	loading bool
}

// NewCache creates a cache bound to a profile service client. It is created
// at session start and carries no state of its own beyond the cached record.
func NewCache(client Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached profile, fetching it on first use.
func (c *Cache) Get(ctx context.Context) (*profile.Profile, error) {
	c.once.Do(func() {
		c.Fetch(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile, c.err
}

// Fetch loads the profile from the service. On success the profile is stored
// and any prior error cleared; on failure the error is stored and the
// previous profile, if any, is left untouched.
func (c *Cache) Fetch(ctx context.Context) (*profile.Profile, error) {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	p, err := c.client.GetProfile(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		logger.Warn("profile fetch failed, keeping stale copy", zap.Error(err))
		c.err = err
		return c.profile, err
	}
	c.profile = p
	c.err = nil
	return c.profile, nil
}

// Refresh is semantically identical to Fetch and is how consumers re-fetch
// after a mutation.
func (c *Cache) Refresh(ctx context.Context) (*profile.Profile, error) {
	return c.Fetch(ctx)
}

// Profile returns the cached profile without triggering a fetch.
func (c *Cache) Profile() *profile.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Err returns the error from the most recent fetch, if any.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether a fetch is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
