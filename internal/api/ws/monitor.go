package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// Counter conta as partidas no banco
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Monitor consulta o total de partidas periodicamente e avisa o Hub quando cresce,
// além de enviar heartbeat com o total
type Monitor struct {
	Hub       *Hub
	Matches   Counter
	Poll      time.Duration
	Heartbeat time.Duration
	Log       *zap.Logger

	mu        sync.Mutex
	last      int64
	primed    bool
	announced int64 // new_matches já entregues pela ingestão desde a última leitura
}

// Notify repassa o frame ao Hub e registra as partidas novas já anunciadas,
// para que o polling não repita o mesmo crescimento
func (m *Monitor) Notify(ctx context.Context, f events.Frame) error {
	if f.Type == events.FrameNewMatches && f.Count > 0 {
		m.mu.Lock()
		m.announced += int64(f.Count)
		m.mu.Unlock()
	}
	return m.Hub.Notify(ctx, f)
}

// Run bloqueia até ctx ser cancelado
func (m *Monitor) Run(ctx context.Context) {
	poll, beat := m.Poll, m.Heartbeat
	if poll <= 0 {
		poll = 5 * time.Second
	}
	if beat <= 0 {
		beat = 30 * time.Second
	}
	pt, bt := time.NewTicker(poll), time.NewTicker(beat)
	defer pt.Stop()
	defer bt.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-pt.C:
			m.check(ctx)
		case <-bt.C:
			m.heartbeat(ctx)
		}
	}
}

// check envia new_matches quando o total cresceu desde a última leitura além do já anunciado
func (m *Monitor) check(ctx context.Context) int {
	n, err := m.Matches.Count(ctx)
	if err != nil {
		m.logger().Warn("monitor count failed", zap.Error(err))
		return 0
	}

	m.mu.Lock()
	grew := 0
	if m.primed && n > m.last {
		grew = int(n - min(n, m.last+m.announced))
	}
	m.last, m.primed, m.announced = n, true, 0
	m.mu.Unlock()

	if grew > 0 && m.Hub.Count() > 0 {
		m.Hub.Broadcast(events.Frame{
			Type:         events.FrameNewMatches,
			Message:      fmt.Sprintf("%d novas partidas", grew),
			Count:        grew,
			TotalMatches: n,
			Timestamp:    time.Now().UTC(),
		})
	}
	return grew
}

func (m *Monitor) heartbeat(ctx context.Context) {
	if m.Hub.Count() == 0 {
		return
	}
	n, err := m.Matches.Count(ctx)
	if err != nil {
		m.logger().Warn("monitor count failed", zap.Error(err))
		return
	}
	m.Hub.Broadcast(events.Frame{Type: events.FrameHeartbeat, TotalMatches: n, Timestamp: time.Now().UTC()})
}

func (m *Monitor) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}
