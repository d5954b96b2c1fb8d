package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"trelliq-api/domain"
)

type backend interface {
	SaveBoard(ctx context.Context, userID string, board domain.Board) error
	FetchBoard(ctx context.Context, userID, boardID string) (domain.Board, error)
	FetchSettings(ctx context.Context, userID string) (domain.Settings, error)
	EnqueueExports(ctx context.Context, userID string, jobs []domain.ExportJob) error
}

// Cache wraps a Storage instance with Redis-backed caching for read operations.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

// SaveBoard writes through to the backing storage and drops any cached copy of
// the board so the next fetch sees the fresh snapshot.
func (c *Cache) SaveBoard(ctx context.Context, userID string, board domain.Board) error {
	if err := c.base.SaveBoard(ctx, userID, board); err != nil {
		return err
	}

	if c.redis != nil {
		_ = c.redis.Del(ctx, boardCacheKey(userID, board.ID)).Err()
	}
	return nil
}

func (c *Cache) FetchBoard(ctx context.Context, userID, boardID string) (domain.Board, error) {
	if board, ok := c.loadBoardFromCache(ctx, userID, boardID); ok {
		return board, nil
	}

	board, err := c.base.FetchBoard(ctx, userID, boardID)
	if err != nil {
		return domain.Board{}, err
	}

	c.storeBoard(ctx, userID, board)
	return board, nil
}

func (c *Cache) FetchSettings(ctx context.Context, userID string) (domain.Settings, error) {
	if settings, ok := c.loadSettingsFromCache(ctx, userID); ok {
		return settings, nil
	}

	settings, err := c.base.FetchSettings(ctx, userID)
	if err != nil {
		return domain.Settings{}, err
	}

	c.storeSettings(ctx, userID, settings)
	return settings, nil
}

func (c *Cache) EnqueueExports(ctx context.Context, userID string, jobs []domain.ExportJob) error {
	return c.base.EnqueueExports(ctx, userID, jobs)
}

func (c *Cache) loadBoardFromCache(ctx context.Context, userID, boardID string) (domain.Board, bool) {
	if c.redis == nil {
		return domain.Board{}, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(userID, boardID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, boardCacheKey(userID, boardID)).Err()
		}
		return domain.Board{}, false
	}
	var board domain.Board
	if err := json.Unmarshal(data, &board); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(userID, boardID)).Err()
		return domain.Board{}, false
	}
	return board, true
}

func (c *Cache) loadSettingsFromCache(ctx context.Context, userID string) (domain.Settings, bool) {
	if c.redis == nil {
		return domain.Settings{}, false
	}
	data, err := c.redis.Get(ctx, settingsCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, settingsCacheKey(userID)).Err()
		}
		return domain.Settings{}, false
	}
	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		_ = c.redis.Del(ctx, settingsCacheKey(userID)).Err()
		return domain.Settings{}, false
	}
	return settings, true
}

func (c *Cache) storeBoard(ctx context.Context, userID string, board domain.Board) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(board)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardCacheKey(userID, board.ID), data, c.ttl).Err()
}

func (c *Cache) storeSettings(ctx context.Context, userID string, settings domain.Settings) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, settingsCacheKey(userID), data, c.ttl).Err()
}

func boardCacheKey(userID, boardID string) string {
	return "board:" + userID + ":" + boardID
}

func settingsCacheKey(userID string) string {
	return "settings:" + userID
}
