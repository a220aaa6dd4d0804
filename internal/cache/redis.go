// Package cache keeps related-question search results in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/search"
)

const (
	keyPrefix = "search:"
	// generationKey is bumped by Purge. Result keys embed the generation they
	// were written under, so a bump orphans them until their TTL runs out.
	generationKey = keyPrefix + "generation"
)

type SearchCache struct {
	client *redis.Client
}

var _ search.Cache = (*SearchCache)(nil)

func NewSearchCache(client *redis.Client) *SearchCache {
	return &SearchCache{client: client}
}

func (c *SearchCache) Get(ctx context.Context, query string) ([]models.SearchHit, bool, error) {
	key, err := c.key(ctx, query)
	if err != nil {
		return nil, false, err
	}
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var hits []models.SearchHit
	if err := json.Unmarshal([]byte(v), &hits); err != nil {
		return nil, false, err
	}
	return hits, true, nil
}

func (c *SearchCache) Set(ctx context.Context, query string, hits []models.SearchHit, ttl time.Duration) error {
	b, err := json.Marshal(hits)
	if err != nil {
		return err
	}
	key, err := c.key(ctx, query)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Purge invalidates every stored result by moving to a new generation.
func (c *SearchCache) Purge(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

func (c *SearchCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SearchCache) key(ctx context.Context, query string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return "", err
	}
	return searchKey(gen, query), nil
}

// searchKey hashes the query so arbitrary user text never lands in a key.
func searchKey(generation int64, query string) string {
	sum := sha256.Sum256([]byte(query))
	return keyPrefix + strconv.FormatInt(generation, 10) + ":" + hex.EncodeToString(sum[:])
}
