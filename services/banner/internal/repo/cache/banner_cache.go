package cache

import (
	"context"
	"time"

	"avto-sawda/pkg/cache"
	"avto-sawda/services/banner/internal/entity"

	"github.com/redis/go-redis/v9"
)

const (
	activeKey = "banners:active"
	activeTTL = 10 * time.Minute
)

// BannerCache keeps the public banner list in redis.
type BannerCache struct {
	rdb *redis.Client
}

func NewBannerCache(rdb *redis.Client) *BannerCache {
	return &BannerCache{rdb: rdb}
}

func (c *BannerCache) GetActive(ctx context.Context) ([]*entity.Banner, bool, error) {
	var banners []*entity.Banner
	ok, err := cache.GetJSON(ctx, c.rdb, activeKey, &banners)
	if err != nil || !ok {
		return nil, false, err
	}
	return banners, true, nil
}

func (c *BannerCache) SetActive(ctx context.Context, banners []*entity.Banner) error {
	return cache.SetJSON(ctx, c.rdb, activeKey, banners, activeTTL)
}

func (c *BannerCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, activeKey).Err()
}
