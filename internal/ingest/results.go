package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// ResultsCollector busca as partidas recentes e grava os placares finais
type ResultsCollector struct {
	Provider Provider
	Matches  MatchStore
	Runs     RunStore
	Leagues  []string
	Notifier Notifier
	Events   EventPublisher
	Log      *zap.Logger

	OnResult func(league string)
	OnError  func(league, stage string)
}

func (c *ResultsCollector) Run(ctx context.Context) (Report, error) {
	log, notifier, pub := loggerOr(c.Log), notifierOr(c.Notifier), publisherOr(c.Events)

	run, err := c.Runs.Start(ctx, repository.ModeResults, c.Leagues)
	if err != nil {
		return Report{}, fmt.Errorf("start run: %w", err)
	}
	log = log.With(zap.String("run_uuid", run.UUID), zap.String("mode", run.Mode))

	var (
		rep       = Report{RunID: run.ID, RunUUID: run.UUID}
		succeeded int
	)
	for _, league := range c.Leagues {
		if ctx.Err() != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", league, ctx.Err()))
			continue
		}
		llog := log.With(zap.String("league", league))

		resp, err := c.Provider.Matches(ctx, league)
		if err != nil {
			c.fail(league, "fetch")
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", league, err))
			continue
		}

		var in []repository.ResultInput
		for _, rec := range resp.Matchs {
			ext := strings.TrimSpace(rec.ID.String())
			raw := rec.FinalScore()
			if ext == "" || raw == "" {
				continue
			}
			s, err := match.ParseScore(raw)
			if err != nil {
				llog.Debug("unparseable score skipped", zap.String("external_id", ext), zap.String("score", raw))
				continue
			}
			in = append(in, repository.ResultInput{ExternalID: ext, Score: s})
		}
		rep.Found += len(in)

		out, err := c.Matches.ApplyResults(ctx, in)
		if err != nil {
			llog.Error("store results failed", zap.Error(err))
			c.fail(league, "store")
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", league, err))
			continue
		}
		succeeded++
		rep.Updated += len(out.Changed)
		rep.Unchanged += out.Unchanged
		if out.Missing > 0 {
			llog.Debug("results without local match", zap.Int("missing", out.Missing))
		}
		llog.Info("league results applied",
			zap.Int("parsed", len(in)), zap.Int("updated", len(out.Changed)), zap.Int("unchanged", out.Unchanged))

		now := time.Now().UTC()
		for _, ch := range out.Changed {
			if c.OnResult != nil {
				c.OnResult(league)
			}
			if err := pub.PublishResult(ctx, resultUpdate(ch, "provider", now)); err != nil {
				llog.Warn("publish result failed", zap.String("external_id", ch.ExternalID), zap.Error(err))
				c.fail(league, "publish")
			}
		}
	}

	rep.Status = repository.RunStatus(succeeded, len(c.Leagues)-succeeded)
	run.Status, run.Found, run.Updated = rep.Status, rep.Found, rep.Updated
	run.ErrorMessage = strings.Join(rep.Errors, "; ")
	if err := c.Runs.Finish(context.WithoutCancel(ctx), &run); err != nil {
		log.Error("finish run failed", zap.Error(err))
	}

	if rep.Updated > 0 {
		f := events.Frame{
			Type:      events.FrameResultsUpdated,
			Message:   fmt.Sprintf("%d resultados atualizados", rep.Updated),
			Updated:   rep.Updated,
			Timestamp: time.Now().UTC(),
		}
		if err := notifier.Notify(ctx, f); err != nil {
			log.Warn("notify results failed", zap.Error(err))
		}
	}

	log.Info("results collection finished",
		zap.String("status", rep.Status), zap.Int("found", rep.Found),
		zap.Int("updated", rep.Updated), zap.Int("errors", len(rep.Errors)))
	return rep, nil
}

func (c *ResultsCollector) fail(league, stage string) {
	if c.OnError != nil {
		c.OnError(league, stage)
	}
}

// ResultEvent monta o evento de resultado; usado também pelo resultado manual da API
func ResultEvent(id int64, externalID, league string, s match.Score, source string) events.ResultUpdate {
	return resultUpdate(repository.ResultChange{ID: id, ExternalID: externalID, League: league, Score: s}, source, time.Now().UTC())
}

func resultUpdate(ch repository.ResultChange, source string, at time.Time) events.ResultUpdate {
	return events.ResultUpdate{
		MatchID:    ch.ID,
		ExternalID: ch.ExternalID,
		League:     ch.League,
		GoalsHome:  ch.Score.Home,
		GoalsAway:  ch.Score.Away,
		TotalGoals: ch.Score.Total(),
		Result:     string(ch.Score.Outcome()),
		Source:     source,
		UpdatedAt:  at,
	}
}
