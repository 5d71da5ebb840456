package prediction

import (
	"math"
	"sync"
	"time"

	"github.com/charlieloganx23/apibet/internal/match"
)

// Summary acumula o desempenho da heurística sobre partidas encerradas
type Summary struct {
	TotalPredictions   int       `json:"total_predictions"`
	CorrectWinners     int       `json:"correct_winners"`
	ScoresEvaluated    int       `json:"scores_evaluated"`
	CorrectScores      int       `json:"correct_scores"`
	OverUnderEvaluated int       `json:"over_under_evaluated"`
	CorrectOverUnder   int       `json:"correct_over_under"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}

// Accuracy devolve os acertos percentuais (uma casa decimal) de vencedor, placar e over/under
func (s Summary) Accuracy() (winner, exactScore, overUnder float64) {
	return pct(s.CorrectWinners, s.TotalPredictions),
		pct(s.CorrectScores, s.ScoresEvaluated),
		pct(s.CorrectOverUnder, s.OverUnderEvaluated)
}

func pct(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*1000) / 10
}

// Evaluate confronta a previsão com o resultado de cada partida encerrada.
// Partidas sem placar ou sem odds 1X2 são ignoradas.
func Evaluate(finished []match.Match, now time.Time) Summary {
	s := Summary{EvaluatedAt: now}
	for _, m := range finished {
		if !m.HasGoals() {
			continue
		}
		p, err := Predict(m)
		if err != nil {
			continue
		}
		actual := match.Score{Home: *m.GoalsHome, Away: *m.GoalsAway}

		s.TotalPredictions++
		if p.Result.Label == string(actual.Outcome()) {
			s.CorrectWinners++
		}
		if score := p.PredictedScore(); score != "" {
			s.ScoresEvaluated++
			if score == actual.String() {
				s.CorrectScores++
			}
		}
		if p.Goals != nil {
			s.OverUnderEvaluated++
			over := float64(actual.Total()) > GoalLine
			if (p.Goals.Label == LabelOver) == over {
				s.CorrectOverUnder++
			}
		}
	}
	return s
}

// Tracker guarda o último Summary calculado; seguro para uso concorrente
type Tracker struct {
	mu      sync.RWMutex
	summary Summary
	now     func() time.Time
}

func NewTracker() *Tracker { return &Tracker{now: time.Now} }

// Refresh recalcula o resumo a partir das partidas encerradas
func (t *Tracker) Refresh(finished []match.Match) Summary {
	s := Evaluate(finished, t.now())
	t.mu.Lock()
	t.summary = s
	t.mu.Unlock()
	return s
}

// Snapshot devolve uma cópia do resumo atual
func (t *Tracker) Snapshot() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.summary
}
