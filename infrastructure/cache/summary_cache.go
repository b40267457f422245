package cache

import (
	"context"
	"sync"
	"time"

	"dispatcher/models"
)

type SummarySource interface {
	FetchOrderSummaries(ctx context.Context) ([]models.OrdersSummaryItem, error)
}

// SummaryCache keeps the last successful order summary list. When the ERP cannot be reached
// the cached list is returned together with the fetch error so the list screen still shows
// what was open the last time the device was online.
type SummaryCache struct {
	mu        sync.RWMutex
	src       SummarySource
	items     []models.OrdersSummaryItem
	fetchedAt time.Time

	Now func() time.Time
}

func NewSummaryCache(src SummarySource) *SummaryCache {
	return &SummaryCache{src: src, Now: time.Now}
}

func (c *SummaryCache) FetchOrderSummaries(ctx context.Context) ([]models.OrdersSummaryItem, error) {
	items, err := c.src.FetchOrderSummaries(ctx)
	if err != nil {
		cached, _ := c.Snapshot()
		return cached, err
	}
	c.mu.Lock()
	c.items = append([]models.OrdersSummaryItem(nil), items...)
	c.fetchedAt = c.Now()
	c.mu.Unlock()
	return items, nil
}

// Snapshot returns a copy of the cached list and when it was fetched. The time is zero when
// nothing has been cached yet.
func (c *SummaryCache) Snapshot() ([]models.OrdersSummaryItem, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.items == nil {
		return nil, c.fetchedAt
	}
	return append([]models.OrdersSummaryItem(nil), c.items...), c.fetchedAt
}
