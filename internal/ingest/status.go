package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/lifecycle"
	"github.com/charlieloganx23/apibet/internal/match"
)

// StatusReport conta o resultado de uma sincronização de status
type StatusReport struct {
	Checked  int                  `json:"checked"`
	Changed  int                  `json:"changed"`
	Skipped  int                  `json:"skipped"`
	Repaired int                  `json:"repaired"`
	ByStatus map[match.Status]int `json:"by_status"`
}

// StatusSyncer recalcula o status das partidas que ainda não estão finished com placar
type StatusSyncer struct {
	Matches    MatchStore
	Clock      lifecycle.Clock
	Thresholds lifecycle.Thresholds
	Log        *zap.Logger

	OnChange func(to match.Status)
}

func (s *StatusSyncer) Run(ctx context.Context) (StatusReport, error) {
	log := loggerOr(s.Log)
	th := s.Thresholds
	if th.Rollover == 0 {
		th = lifecycle.DefaultThresholds()
	}

	rows, err := s.Matches.PendingStatus(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("pending status: %w", err)
	}

	rep := StatusReport{ByStatus: map[match.Status]int{}}
	ref := s.Clock.SiteTime()
	changes := make(map[int64]match.Status)
	repairs := make(map[int64]match.Score)
	var moved []match.Status // status alterado via reparo

	for _, m := range rows {
		rep.Checked++
		if sc, ok := missingOutcome(m); ok {
			repairs[m.ID] = sc
			rep.ByStatus[match.StatusFinished]++
			if m.Status != match.StatusFinished {
				moved = append(moved, match.StatusFinished)
			}
			continue
		}
		next, ok := nextStatus(m, ref, th)
		if !ok {
			rep.Skipped++
			log.Debug("status skipped", zap.Int64("id", m.ID), zap.String("schedule", m.Schedule()))
			continue
		}
		rep.ByStatus[next]++
		if next != m.Status {
			changes[m.ID] = next
		}
	}

	repaired, err := s.Matches.RepairOutcome(ctx, repairs)
	if err != nil {
		return rep, fmt.Errorf("repair outcome: %w", err)
	}
	rep.Repaired = repaired

	n, err := s.Matches.UpdateStatuses(ctx, changes)
	if err != nil {
		return rep, fmt.Errorf("update statuses: %w", err)
	}
	rep.Changed = n + len(moved)
	if s.OnChange != nil {
		for _, st := range changes {
			s.OnChange(st)
		}
		for _, st := range moved {
			s.OnChange(st)
		}
	}

	log.Info("status sync finished",
		zap.Int("checked", rep.Checked), zap.Int("changed", rep.Changed), zap.Int("skipped", rep.Skipped),
		zap.Int("repaired", rep.Repaired), zap.Int("scheduled", rep.ByStatus[match.StatusScheduled]), zap.Int("live", rep.ByStatus[match.StatusLive]),
		zap.Int("expired", rep.ByStatus[match.StatusExpired]), zap.Int("finished", rep.ByStatus[match.StatusFinished]))
	return rep, nil
}

// missingOutcome devolve o placar de linhas com gols cujo total, resultado ou status não batem
func missingOutcome(m match.Match) (match.Score, bool) {
	if !m.HasGoals() {
		return match.Score{}, false
	}
	sc := match.Score{Home: *m.GoalsHome, Away: *m.GoalsAway}
	if m.Status == match.StatusFinished && m.TotalGoals != nil && *m.TotalGoals == sc.Total() &&
		m.Result != nil && *m.Result == sc.Outcome() {
		return sc, false
	}
	return sc, true
}

// nextStatus: placar presente força finished; sem placar, deriva do horário
func nextStatus(m match.Match, ref time.Time, th lifecycle.Thresholds) (match.Status, bool) {
	if m.HasGoals() {
		return match.StatusFinished, true
	}
	if m.HasOutcome() {
		return "", false
	}
	st, err := lifecycle.Derive(ref, m.Schedule(), false, th)
	if err != nil {
		return "", false
	}
	return st, true
}
