package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda respostas da API no Redis. Um *Cache nil (Redis desabilitado) nunca acerta.
type Cache struct{ R *redis.Client }

// New devolve nil quando r é nil
func New(r *redis.Client) *Cache {
	if r == nil {
		return nil
	}
	return &Cache{R: r}
}

const keyStats = "apibet:stats"

func keyMatch(id int64) string { return "apibet:match:" + strconv.FormatInt(id, 10) }

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	b, err := c.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return decode(b, dst)
}

// decode só reporta hit quando o valor decodifica inteiro
func decode(b []byte, dst any) (bool, error) {
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, b, ttl).Err()
}

func (c *Cache) GetMatch(ctx context.Context, id int64, dst any) (bool, error) {
	return c.get(ctx, keyMatch(id), dst)
}

func (c *Cache) SetMatch(ctx context.Context, id int64, v any, ttl time.Duration) error {
	return c.set(ctx, keyMatch(id), v, ttl)
}

func (c *Cache) GetStats(ctx context.Context, dst any) (bool, error) {
	return c.get(ctx, keyStats, dst)
}

func (c *Cache) SetStats(ctx context.Context, v any, ttl time.Duration) error {
	return c.set(ctx, keyStats, v, ttl)
}

// InvalidateMatch remove a partida e as estatísticas (após resultado manual)
func (c *Cache) InvalidateMatch(ctx context.Context, id int64) error {
	if c == nil {
		return nil
	}
	return c.R.Del(ctx, keyMatch(id), keyStats).Err()
}
