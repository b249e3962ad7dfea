package notifications

import (
	"context"
	"time"

	"github.com/mihuella/pettrack/internal/cache"
)

// CachedContacts memoizes contact lookups so a burst of movement events for
// one owner costs a single query.
type CachedContacts struct {
	next  ContactLookup
	cache *cache.Cache[Contact]
	ttl   time.Duration
}

// NewCachedContacts wraps next with c.
func NewCachedContacts(next ContactLookup, c *cache.Cache[Contact], ttl time.Duration) *CachedContacts {
	if ttl <= 0 {
		ttl = cache.TTLContact
	}
	return &CachedContacts{next: next, cache: c, ttl: ttl}
}

// Contact implements ContactLookup.
func (c *CachedContacts) Contact(ctx context.Context, userID string) (Contact, error) {
	if v, ok := c.cache.Get(userID); ok {
		return v, nil
	}
	v, err := c.next.Contact(ctx, userID)
	if err != nil {
		return Contact{}, err
	}
	c.cache.Set(userID, v, c.ttl)
	return v, nil
}

// Invalidate forgets the cached contact for userID.
func (c *CachedContacts) Invalidate(userID string) {
	c.cache.Delete(userID)
}
