package cache

import (
	"context"
	"time"
)

// Cache holds short-lived upstream reads. Checkout never consults it: the
// availability check always refetches the live catalog.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	CatalogKey       = "catalog"
	ProductKeyPrefix = "product"
)
