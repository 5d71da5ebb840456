// Package lifecycle deriva o status de uma partida a partir do horário do site.
//
// O status é função pura de (horário de referência, horário da partida, placar presente):
//
//	Δ = horário da partida - referência, normalizado para [-Rollover, +Rollover]
//	Δ > ScheduledAfter                 => scheduled
//	-FinishedAfter < Δ <= ScheduledAfter => live
//	Δ <= -FinishedAfter                => finished (com placar) | expired (sem placar)
package lifecycle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charlieloganx23/apibet/internal/match"
)

var ErrBadSchedule = errors.New("invalid schedule")

// Thresholds são os limiares nomeados da derivação
type Thresholds struct {
	ScheduledAfter time.Duration // acima disso a partida ainda não começou
	FinishedAfter  time.Duration // tempo após o início em que a partida é dada como encerrada
	Rollover       time.Duration // meia janela usada para resolver a virada do dia
}

// DefaultThresholds: 120 min, 30 min, 12 h
func DefaultThresholds() Thresholds {
	return Thresholds{
		ScheduledAfter: 120 * time.Minute,
		FinishedAfter:  30 * time.Minute,
		Rollover:       12 * time.Hour,
	}
}

// Validate rejeita combinações sem sentido
func (t Thresholds) Validate() error {
	if t.ScheduledAfter < 0 || t.FinishedAfter < 0 {
		return fmt.Errorf("thresholds must be non-negative: %+v", t)
	}
	if t.Rollover <= 0 || t.Rollover > 24*time.Hour {
		return fmt.Errorf("rollover must be in (0, 24h]: %v", t.Rollover)
	}
	return nil
}

// Clock modela o relógio do site: hora local + deslocamento fixo
type Clock struct {
	Offset time.Duration
	Now    func() time.Time // nil = time.Now
}

// SiteTime devolve o horário de referência do site
func (c Clock) SiteTime() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().Add(c.Offset)
}

// ParseSchedule aceita "HH:MM" e "HH.MM"
func ParseSchedule(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, ":.")
	if sep <= 0 || sep == len(s)-1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadSchedule, s)
	}
	hour, err = strconv.Atoi(s[:sep])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadSchedule, s)
	}
	minute, err = strconv.Atoi(s[sep+1:])
	if err != nil || minute < 0 || minute > 59 || len(s[sep+1:]) > 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadSchedule, s)
	}
	return hour, minute, nil
}

// Delta calcula horário da partida - referência, trazendo o candidato para a
// janela [-rollover, +rollover] em torno da referência. A virada de dia é
// aplicada no máximo uma vez.
func Delta(ref time.Time, hour, minute int, rollover time.Duration) time.Duration {
	ref = ref.Truncate(time.Minute)
	candidate := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location())
	d := candidate.Sub(ref)
	switch {
	case d < -rollover:
		d += 24 * time.Hour
	case d > rollover:
		d -= 24 * time.Hour
	}
	return d
}

// StatusForDelta aplica as transições sobre Δ
func StatusForDelta(delta time.Duration, goalsPresent bool, th Thresholds) match.Status {
	switch {
	case delta > th.ScheduledAfter:
		return match.StatusScheduled
	case delta > -th.FinishedAfter:
		return match.StatusLive
	case goalsPresent:
		return match.StatusFinished
	default:
		return match.StatusExpired
	}
}

// Derive é a composição pura: horário de referência + horário da partida + placar => status
func Derive(ref time.Time, schedule string, goalsPresent bool, th Thresholds) (match.Status, error) {
	h, m, err := ParseSchedule(schedule)
	if err != nil {
		return "", err
	}
	return StatusForDelta(Delta(ref, h, m, th.Rollover), goalsPresent, th), nil
}

// Rank ordena os estados ao longo de Δ: encerrados < live < scheduled
func Rank(s match.Status) int {
	switch s {
	case match.StatusScheduled:
		return 2
	case match.StatusLive:
		return 1
	default:
		return 0
	}
}
