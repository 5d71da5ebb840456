package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// Sink recebe os frames lidos do canal (Hub ou Monitor)
type Sink interface {
	Notify(ctx context.Context, f events.Frame) error
}

// StartRedisSubscriber escuta o canal Pub/Sub em uma goroutine e repassa
// os frames publicados pela ingestão (outro processo) para o sink.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, sink Sink, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var f events.Frame
				if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				_ = sink.Notify(ctx, f)
			}
		}
	}()
}
