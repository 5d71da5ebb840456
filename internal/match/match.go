package match

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status é o estado derivado do ciclo de vida da partida
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusExpired   Status = "expired"
	StatusFinished  Status = "finished"
)

// Valid informa se s é um dos quatro estados conhecidos
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusExpired, StatusFinished:
		return true
	}
	return false
}

// Outcome é o resultado categórico (1X2) de uma partida encerrada
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// Match é a linha da tabela matches
type Match struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	League     string `json:"league"`
	TeamHome   string `json:"team_home"`
	TeamAway   string `json:"team_away"`

	Hour          string     `json:"hour"`
	Minute        string     `json:"minute"`
	ScheduledTime string     `json:"scheduled_time"`
	MatchDate     *time.Time `json:"match_date"`

	Odds
	OddsJSON json.RawMessage `json:"-"` // odds cruas como recebidas do provedor

	GoalsHome  *int     `json:"goals_home"`
	GoalsAway  *int     `json:"goals_away"`
	TotalGoals *int     `json:"total_goals"`
	Result     *Outcome `json:"result"`
	Status     Status   `json:"status"`

	ScrapedAt    time.Time `json:"scraped_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ScraperLogID *int64    `json:"scraper_log_id"`
}

// HasGoals informa se os dois placares estão preenchidos
func (m Match) HasGoals() bool { return m.GoalsHome != nil && m.GoalsAway != nil }

// HasOutcome informa se algum campo de resultado está preenchido
func (m Match) HasOutcome() bool {
	return m.GoalsHome != nil || m.GoalsAway != nil || m.TotalGoals != nil || m.Result != nil
}

// Consistent verifica o invariante: resultado preenchido sse status finished
func (m Match) Consistent() bool {
	if m.Status == StatusFinished {
		return m.HasGoals() && m.TotalGoals != nil && m.Result != nil
	}
	return !m.HasOutcome()
}

// Schedule devolve o horário "HH:MM" preferindo scheduled_time e caindo para hour/minute
func (m Match) Schedule() string {
	if m.ScheduledTime != "" {
		return m.ScheduledTime
	}
	if m.Hour == "" {
		return ""
	}
	return m.Hour + ":" + PadMinute(m.Minute)
}

// SetScore preenche gols, total e resultado e marca a partida como finished
func (m *Match) SetScore(s Score) {
	gh, ga, total := s.Home, s.Away, s.Total()
	out := s.Outcome()
	m.GoalsHome, m.GoalsAway, m.TotalGoals, m.Result = &gh, &ga, &total, &out
	m.Status = StatusFinished
}

// PadMinute normaliza o minuto para dois dígitos ("5" -> "05")
func PadMinute(minute string) string {
	minute = strings.TrimSpace(minute)
	if n, err := strconv.Atoi(minute); err == nil && n >= 0 && n < 60 {
		return fmt.Sprintf("%02d", n)
	}
	return minute
}

// NormalizeHour remove zeros à esquerda ("07" -> "7"), como o provedor envia
func NormalizeHour(hour string) string {
	hour = strings.TrimSpace(hour)
	if n, err := strconv.Atoi(hour); err == nil && n >= 0 && n < 24 {
		return strconv.Itoa(n)
	}
	return hour
}
