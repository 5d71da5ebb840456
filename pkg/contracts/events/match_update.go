package events

import "time"

// Evento publicado no tópico "virtual_odds_updates"
type Odds struct {
	Home float64 `json:"home,omitempty"`
	Draw float64 `json:"draw,omitempty"`
	Away float64 `json:"away,omitempty"`
}

type MatchUpdate struct {
	ExternalID    string             `json:"external_id"`
	League        string             `json:"league"`
	HomeTeam      string             `json:"home_team"`
	AwayTeam      string             `json:"away_team"`
	ScheduledTime string             `json:"scheduled_time"`
	Odds          Odds               `json:"odds"`
	Markets       map[string]float64 `json:"markets,omitempty"` // coluna -> odd, só mercados presentes
	IsNew         bool               `json:"is_new"`
	RunID         string             `json:"run_id"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
