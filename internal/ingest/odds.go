package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/lifecycle"
	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/provider"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// Report resume uma execução de odds ou de resultados
type Report struct {
	RunID     int64    `json:"run_id"`
	RunUUID   string   `json:"run_uuid"`
	Status    string   `json:"status"`
	Found     int      `json:"matches_found"`
	New       int      `json:"matches_new"`
	Updated   int      `json:"matches_updated"`
	Unchanged int      `json:"matches_unchanged,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// OddsIngester busca as próximas partidas de cada liga e grava odds por liga, numa transação cada
type OddsIngester struct {
	Provider   Provider
	Matches    MatchStore
	Runs       RunStore
	Leagues    []string
	Clock      lifecycle.Clock
	Thresholds lifecycle.Thresholds
	Notifier   Notifier
	Events     EventPublisher
	Log        *zap.Logger

	OnMatch func(league string, created bool) // métricas
	OnError func(league, stage string)        // stage: fetch | store | publish
}

func (o *OddsIngester) Run(ctx context.Context) (Report, error) {
	log, notifier, pub := loggerOr(o.Log), notifierOr(o.Notifier), publisherOr(o.Events)

	run, err := o.Runs.Start(ctx, repository.ModeOdds, o.Leagues)
	if err != nil {
		return Report{}, fmt.Errorf("start run: %w", err)
	}
	log = log.With(zap.String("run_uuid", run.UUID), zap.String("mode", run.Mode))
	log.Info("odds ingestion started", zap.Strings("leagues", o.Leagues))

	var (
		rep       = Report{RunID: run.ID, RunUUID: run.UUID}
		succeeded int
		ref       = o.Clock.SiteTime()
	)
	for _, league := range o.Leagues {
		if ctx.Err() != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", league, ctx.Err()))
			continue
		}
		llog := log.With(zap.String("league", league))

		resp, err := o.Provider.NextMatches(ctx, league)
		if err != nil {
			o.fail(league, "fetch")
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", league, err))
			continue
		}

		var batch []match.Match
		for _, rec := range resp.Matchs {
			m, ok := o.convert(llog, league, rec, ref)
			if ok {
				batch = append(batch, m)
			}
		}
		rep.Found += len(batch)

		res, err := o.Matches.UpsertOdds(ctx, batch, &run.ID)
		if err != nil {
			llog.Error("store odds failed", zap.Error(err))
			o.fail(league, "store")
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", league, err))
			continue
		}
		succeeded++
		rep.New += res.New
		rep.Updated += res.Updated
		llog.Info("league ingested",
			zap.Int("found", len(batch)), zap.Int("new", res.New), zap.Int("updated", res.Updated))

		now := time.Now().UTC()
		for _, m := range batch {
			created := res.Created[m.ExternalID]
			if o.OnMatch != nil {
				o.OnMatch(league, created)
			}
			if err := pub.PublishMatch(ctx, matchUpdate(m, created, run.UUID, now)); err != nil {
				llog.Warn("publish match update failed", zap.String("external_id", m.ExternalID), zap.Error(err))
				o.fail(league, "publish")
			}
		}
	}

	rep.Status = repository.RunStatus(succeeded, len(o.Leagues)-succeeded)
	o.finish(ctx, log, &run, rep)

	if rep.New > 0 {
		f := events.Frame{
			Type:      events.FrameNewMatches,
			Message:   fmt.Sprintf("%d novas partidas", rep.New),
			Count:     rep.New,
			Timestamp: time.Now().UTC(),
		}
		if err := notifier.Notify(ctx, f); err != nil {
			log.Warn("notify new matches failed", zap.Error(err))
		}
	}

	log.Info("odds ingestion finished",
		zap.String("status", rep.Status), zap.Int("found", rep.Found),
		zap.Int("new", rep.New), zap.Int("updated", rep.Updated), zap.Int("errors", len(rep.Errors)))
	return rep, nil
}

func (o *OddsIngester) fail(league, stage string) {
	if o.OnError != nil {
		o.OnError(league, stage)
	}
}

func (o *OddsIngester) finish(ctx context.Context, log *zap.Logger, run *repository.Run, rep Report) {
	run.Status, run.Found, run.New, run.Updated = rep.Status, rep.Found, rep.New, rep.Updated
	run.ErrorMessage = strings.Join(rep.Errors, "; ")
	// o registro da execução é finalizado mesmo com o contexto cancelado
	if err := o.Runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		log.Error("finish run failed", zap.Error(err))
	}
}

// convert transforma o registro do provedor numa linha de matches
func (o *OddsIngester) convert(log *zap.Logger, league string, rec provider.Record, ref time.Time) (match.Match, bool) {
	ext := strings.TrimSpace(rec.ID.String())
	if ext == "" {
		log.Warn("record without id skipped", zap.String("home", rec.TimeA), zap.String("away", rec.TimeB))
		return match.Match{}, false
	}

	m := match.Match{
		ExternalID: ext,
		League:     league,
		TeamHome:   strings.TrimSpace(rec.TimeA),
		TeamAway:   strings.TrimSpace(rec.TimeB),
		Status:     match.StatusScheduled,
	}

	h, mi, ok := schedule(rec)
	if ok {
		m.Hour = fmt.Sprint(h)
		m.Minute = fmt.Sprintf("%02d", mi)
		m.ScheduledTime = fmt.Sprintf("%02d:%02d", h, mi)
		kickoff := ref.Truncate(time.Minute).Add(lifecycle.Delta(ref, h, mi, o.thresholds().Rollover))
		m.MatchDate = &kickoff
	} else {
		m.Hour = match.NormalizeHour(rec.Hora.String())
		m.Minute = match.PadMinute(rec.Minuto.String())
		log.Debug("record without parseable schedule", zap.String("external_id", ext),
			zap.String("hora", rec.Hora.String()), zap.String("minuto", rec.Minuto.String()), zap.String("horario", rec.Horario.String()))
	}

	raw, err := rec.OddsMap()
	if err != nil {
		log.Warn("invalid odds object", zap.String("external_id", ext), zap.Error(err))
	} else {
		m.Odds = match.OddsFromProvider(raw)
		if len(raw) > 0 {
			m.OddsJSON = rec.Odds
		}
	}
	return m, true
}

func (o *OddsIngester) thresholds() lifecycle.Thresholds {
	if o.Thresholds.Rollover == 0 {
		return lifecycle.DefaultThresholds()
	}
	return o.Thresholds
}

// schedule lê hora/minuto e cai para horario ("HH:MM" ou "HH.MM")
func schedule(rec provider.Record) (hour, minute int, ok bool) {
	h, hok := rec.Hora.Int()
	mi, mok := rec.Minuto.Int()
	if hok && mok && h >= 0 && h < 24 && mi >= 0 && mi < 60 {
		return h, mi, true
	}
	h, mi, err := lifecycle.ParseSchedule(rec.Horario.String())
	if err != nil {
		return 0, 0, false
	}
	return h, mi, true
}

func matchUpdate(m match.Match, created bool, runUUID string, at time.Time) events.MatchUpdate {
	return events.MatchUpdate{
		ExternalID:    m.ExternalID,
		League:        m.League,
		HomeTeam:      m.TeamHome,
		AwayTeam:      m.TeamAway,
		ScheduledTime: m.ScheduledTime,
		Odds:          events.Odds{Home: deref(m.Odds.Home), Draw: deref(m.Odds.Draw), Away: deref(m.Odds.Away)},
		Markets:       m.Odds.Present(),
		IsNew:         created,
		RunID:         runUUID,
		UpdatedAt:     at,
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func loggerOr(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func notifierOr(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func publisherOr(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
