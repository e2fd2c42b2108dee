package repositories

import (
	"context"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type areaRepository interface {
	GetIdByName(ctx context.Context, name string) (string, error)
}

type CachedAreas struct {
	repo  areaRepository
	cache *gocache.Cache
}

func NewCachedAreas(repo areaRepository) *CachedAreas {
	return &CachedAreas{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedAreas) GetIdByName(ctx context.Context, name string) (string, error) {
	key := models.NormalizeAreaName(name)
	if value, found := c.cache.Get(key); found {
		return value.(string), nil
	}

	id, err := c.repo.GetIdByName(ctx, name)
	if err != nil {
		return "", err
	}

	if id != "" {
		c.cache.SetDefault(key, id)
	}
	return id, nil
}
