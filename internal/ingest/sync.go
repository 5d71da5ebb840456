package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SyncReport reúne os relatórios de cada passo do ciclo completo
type SyncReport struct {
	StatusBefore StatusReport `json:"status_before"`
	Odds         Report       `json:"odds"`
	Results      Report       `json:"results"`
	StatusAfter  StatusReport `json:"status_after"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	Errors       []string     `json:"errors,omitempty"`
}

// Sync executa o ciclo completo: status -> odds -> resultados -> status.
// Um passo com falha é registrado e o ciclo continua.
type Sync struct {
	Status  *StatusSyncer
	Odds    *OddsIngester
	Results *ResultsCollector
	Log     *zap.Logger
}

func (s *Sync) Run(ctx context.Context) (SyncReport, error) {
	log := loggerOr(s.Log)
	rep := SyncReport{StartedAt: time.Now().UTC()}
	var errs []error

	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			log.Error("sync step failed", zap.String("step", name), zap.Error(err))
			rep.Errors = append(rep.Errors, name+": "+err.Error())
			errs = append(errs, err)
		}
	}

	step("status_before", func() (err error) { rep.StatusBefore, err = s.Status.Run(ctx); return })
	step("odds", func() (err error) { rep.Odds, err = s.Odds.Run(ctx); return })
	step("results", func() (err error) { rep.Results, err = s.Results.Run(ctx); return })
	step("status_after", func() (err error) { rep.StatusAfter, err = s.Status.Run(ctx); return })

	rep.FinishedAt = time.Now().UTC()
	log.Info("sync cycle finished",
		zap.Duration("elapsed", rep.FinishedAt.Sub(rep.StartedAt)),
		zap.Int("new", rep.Odds.New), zap.Int("updated", rep.Odds.Updated),
		zap.Int("results", rep.Results.Updated), zap.Int("errors", len(rep.Errors)))
	return rep, errors.Join(errs...)
}
