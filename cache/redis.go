// Package cache holds the redis-backed product catalog cache. Catalog reads
// vastly outnumber writes and admin catalog edits happen out of band, so a
// short TTL bounds staleness without invalidation plumbing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/conquestsam/African-Snakie/models"
)

var ErrCacheMiss = errors.New("cache miss")

type ProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (p *ProductCache) GetList(ctx context.Context, key string) ([]models.Product, error) {
	data, err := p.client.Get(ctx, listKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

func (p *ProductCache) SetList(ctx context.Context, key string, products []models.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}

	// Jitter spreads expirations so a burst of misses does not hit the DB
	// at the same instant.
	ttl := p.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := p.client.Set(ctx, listKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (p *ProductCache) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	data, err := p.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &product, nil
}

func (p *ProductCache) SetProduct(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	ttl := p.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := p.client.Set(ctx, productKey(product.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func listKey(key string) string {
	return "products:" + key
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}
