package ingest

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/charlieloganx23/apibet/pkg/contracts/events"
	"github.com/charlieloganx23/apibet/pkg/contracts/topics"
)

// RedisNotifier publica frames no canal Pub/Sub lido pelo /ws da API
type RedisNotifier struct {
	r       *redis.Client
	channel string
}

func NewRedisNotifier(r *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = topics.WSBroadcastChannel
	}
	return &RedisNotifier{r: r, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, f events.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return n.r.Publish(ctx, n.channel, b).Err()
}
