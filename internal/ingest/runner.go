package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/prediction"
)

// Cycle é uma rodada completa de ingestão (Sync em produção)
type Cycle interface {
	Run(ctx context.Context) (SyncReport, error)
}

// FinishedLister fornece as partidas encerradas para a avaliação de acurácia
type FinishedLister interface {
	Finished(ctx context.Context, limit int) ([]match.Match, error)
}

// Runner dispara o ciclo a cada Interval numa goroutine própria.
// Start/Stop podem ser chamados pela API enquanto o servidor roda.
type Runner struct {
	Cycle    Cycle
	Interval time.Duration
	Tracker  *prediction.Tracker
	History  FinishedLister
	Log      *zap.Logger

	OnCycle func(rep SyncReport, err error, elapsed time.Duration)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	cycleMu sync.Mutex // um ciclo por vez (loop e TriggerOnce)
}

// Start inicia o loop; devolve false se já estava rodando
func (r *Runner) Start(parent context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		r.loop(ctx)
	}()
	return true
}

// Stop encerra o loop e espera o ciclo corrente terminar; devolve false se não estava rodando
func (r *Runner) Stop() bool {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// TriggerOnce executa um ciclo síncrono fora do loop
func (r *Runner) TriggerOnce(ctx context.Context) (SyncReport, error) {
	return r.runCycle(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	log := loggerOr(r.Log)
	interval := r.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log.Info("runner started", zap.Duration("interval", interval))

	_, _ = r.runCycle(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("runner stopped")
			return
		case <-t.C:
			_, _ = r.runCycle(ctx)
		}
	}
}

func (r *Runner) runCycle(ctx context.Context) (SyncReport, error) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	start := time.Now()
	rep, err := r.Cycle.Run(ctx)
	if r.OnCycle != nil {
		r.OnCycle(rep, err, time.Since(start))
	}
	r.refreshTracker(ctx)
	return rep, err
}

func (r *Runner) refreshTracker(ctx context.Context) {
	if r.Tracker == nil || r.History == nil {
		return
	}
	finished, err := r.History.Finished(ctx, 0)
	if err != nil {
		loggerOr(r.Log).Warn("accuracy refresh failed", zap.Error(err))
		return
	}
	r.Tracker.Refresh(finished)
}
