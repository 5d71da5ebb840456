package events

import "time"

// Tipos de frame enviados pelo /ws
const (
	FrameConnected      = "connected"
	FrameHeartbeat      = "heartbeat"
	FrameNewMatches     = "new_matches"
	FrameResultsUpdated = "results_updated"
	FrameResultUpdated  = "result_updated"
	FramePong           = "pong"
)

// Frame é a mensagem JSON entregue aos clientes WebSocket.
// Também trafega pelo Redis Pub/Sub quando a ingestão roda em outro processo.
type Frame struct {
	Type         string    `json:"type"`
	Message      string    `json:"message,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	Count        int       `json:"count,omitempty"`
	Updated      int       `json:"updated,omitempty"`
	TotalMatches int64     `json:"total_matches,omitempty"`
	MatchID      int64     `json:"match_id,omitempty"`
	GoalsHome    *int      `json:"goals_home,omitempty"`
	GoalsAway    *int      `json:"goals_away,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
