package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/milsabores/storefront-gateway/internal/cache"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/pkg/bakery"
)

// ProductService proxies the backend catalog for the browse surface, with a
// short TTL cache. Checkout's availability check goes straight to the client
// and never through here.
type ProductService struct {
	client bakery.Client
	cache  cache.Cache
	ttl    time.Duration
}

func NewProductService(client bakery.Client, c cache.Cache, ttl time.Duration) *ProductService {
	return &ProductService{client: client, cache: c, ttl: ttl}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product

	if hit, err := s.cache.Get(ctx, cache.CatalogKey, &products); err != nil {
		slog.Warn("Catalog cache read failed", slog.String("error", err.Error()))
	} else if hit {
		return products, nil
	}

	products, err := s.client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.CatalogKey, products, s.ttl); err != nil {
		slog.Warn("Catalog cache write failed", slog.String("error", err.Error()))
	}

	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	key := cache.Key(cache.ProductKeyPrefix, code)

	product := &models.Product{}

	if hit, err := s.cache.Get(ctx, key, product); err != nil {
		slog.Warn("Product cache read failed", slog.String("code", code), slog.String("error", err.Error()))
	} else if hit {
		return product, nil
	}

	product, err := s.client.GetProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, product, s.ttl); err != nil {
		slog.Warn("Product cache write failed", slog.String("code", code), slog.String("error", err.Error()))
	}

	return product, nil
}
