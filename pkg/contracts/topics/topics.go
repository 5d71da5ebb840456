package topics

const (
	// Odds das próximas partidas (uma mensagem por partida ingerida)
	MatchUpdates = "virtual_odds_updates"

	// Resultados finais
	MatchResults = "virtual_match_results"

	// Canal Redis Pub/Sub usado para repassar frames ao /ws da API
	WSBroadcastChannel = "virtual_football_ws"
)
