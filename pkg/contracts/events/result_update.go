package events

import "time"

// Evento publicado no tópico "virtual_match_results"
type ResultUpdate struct {
	MatchID    int64     `json:"match_id"`
	ExternalID string    `json:"external_id"`
	League     string    `json:"league"`
	GoalsHome  int       `json:"goals_home"`
	GoalsAway  int       `json:"goals_away"`
	TotalGoals int       `json:"total_goals"`
	Result     string    `json:"result"` // home | draw | away
	Source     string    `json:"source"` // provider | manual
	UpdatedAt  time.Time `json:"updated_at"`
}
