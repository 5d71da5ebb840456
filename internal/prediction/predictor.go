package prediction

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charlieloganx23/apibet/internal/match"
)

var ErrMissingOdds = errors.New("missing 1x2 odds")

// Limiares das recomendações (percentuais em fração)
const (
	StrongFavorite = 0.45
	Balanced       = 0.40
	HighConfidence = 0.60
	ValueMinOdd    = 3.0
	ValueMinProb   = 0.30
	TopScores      = 5
	GoalLine       = 2.5
	LabelOver      = "over_2.5"
	LabelUnder     = "under_2.5"
	LabelBothYes   = "yes"
	LabelBothNo    = "no"
	RecSuccess     = "success"
	RecWarning     = "warning"
	RecInfo        = "info"
	RecValue       = "value"
)

// ScoreChance é um placar exato com sua probabilidade implícita (não normalizada)
type ScoreChance struct {
	Score       string        `json:"score"` // "casa-fora", ex.: "0-1"
	Outcome     match.Outcome `json:"outcome"`
	Odd         float64       `json:"odd"`
	Probability float64       `json:"probability"`
}

type Recommendation struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Prediction é a leitura das odds de uma partida
type Prediction struct {
	Outcomes         []Pick           `json:"outcomes"` // home, draw, away normalizados
	Result           Pick             `json:"result"`
	Margin           float64          `json:"margin"` // margem da casa no 1x2 (overround - 1)
	IsFavoriteStrong bool             `json:"is_favorite_strong"`
	Goals            *Pick            `json:"goals,omitempty"`      // over/under 2.5, probabilidade crua
	BothScore        *Pick            `json:"both_score,omitempty"` // ambas marcam, probabilidade crua
	Scores           []ScoreChance    `json:"scores"`
	Recommendations  []Recommendation `json:"recommendations"`
}

// PredictedScore devolve o placar mais provável, "" quando não há odds de placar exato
func (p Prediction) PredictedScore() string {
	if len(p.Scores) == 0 {
		return ""
	}
	return p.Scores[0].Score
}

// Value é o valor esperado percentual da aposta no resultado previsto: (p*odd - 1)*100
func (p Prediction) Value() float64 {
	return (p.Result.Probability*p.Result.Odd - 1) * 100
}

// Predict aplica a heurística de probabilidade implícita sobre as odds da partida
func Predict(m match.Match) (Prediction, error) {
	if m.Home == nil || m.Draw == nil || m.Away == nil {
		return Prediction{}, fmt.Errorf("match %d: %w", m.ID, ErrMissingOdds)
	}
	raw := []float64{ImpliedPtr(m.Home), ImpliedPtr(m.Draw), ImpliedPtr(m.Away)}
	norm := Normalize(raw)
	if norm == nil {
		return Prediction{}, fmt.Errorf("match %d: %w", m.ID, ErrMissingOdds)
	}

	var p Prediction
	p.Outcomes = []Pick{
		{Label: string(match.OutcomeHome), Odd: *m.Home, Probability: norm[0]},
		{Label: string(match.OutcomeDraw), Odd: *m.Draw, Probability: norm[1]},
		{Label: string(match.OutcomeAway), Odd: *m.Away, Probability: norm[2]},
	}
	p.Result, _ = Argmax(p.Outcomes)
	p.Margin = Overround(*m.Home, *m.Draw, *m.Away) - 1
	p.IsFavoriteStrong = p.Result.Probability > StrongFavorite

	if m.Over25 != nil || m.Under25 != nil {
		g, _ := Argmax([]Pick{
			{Label: LabelUnder, Odd: deref(m.Under25), Probability: ImpliedPtr(m.Under25)},
			{Label: LabelOver, Odd: deref(m.Over25), Probability: ImpliedPtr(m.Over25)},
		})
		p.Goals = &g
	}
	if m.BothScoreYes != nil || m.BothScoreNo != nil {
		b, _ := Argmax([]Pick{
			{Label: LabelBothNo, Odd: deref(m.BothScoreNo), Probability: ImpliedPtr(m.BothScoreNo)},
			{Label: LabelBothYes, Odd: deref(m.BothScoreYes), Probability: ImpliedPtr(m.BothScoreYes)},
		})
		p.BothScore = &b
	}

	p.Scores = scoreChances(m.Odds)
	p.Recommendations = recommend(m, p)
	return p, nil
}

// scoreChances ordena os placares exatos por probabilidade implícita
func scoreChances(o match.Odds) []ScoreChance {
	buckets := []struct {
		score   string
		outcome match.Outcome
		odd     *float64
	}{
		{"1-0", match.OutcomeHome, o.Correct10Home},
		{"2-0", match.OutcomeHome, o.Correct20Home},
		{"2-1", match.OutcomeHome, o.Correct21Home},
		{"0-0", match.OutcomeDraw, o.Correct00},
		{"1-1", match.OutcomeDraw, o.Correct11},
		{"2-2", match.OutcomeDraw, o.Correct22},
		{"0-1", match.OutcomeAway, o.Correct10Away},
		{"0-2", match.OutcomeAway, o.Correct20Away},
		{"1-2", match.OutcomeAway, o.Correct21Away},
	}
	var out []ScoreChance
	for _, b := range buckets {
		if b.odd == nil {
			continue
		}
		prob, ok := Implied(*b.odd)
		if !ok {
			continue
		}
		out = append(out, ScoreChance{Score: b.score, Outcome: b.outcome, Odd: *b.odd, Probability: prob})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	if len(out) > TopScores {
		out = out[:TopScores]
	}
	return out
}

func recommend(m match.Match, p Prediction) []Recommendation {
	var recs []Recommendation
	switch {
	case p.IsFavoriteStrong:
		recs = append(recs, Recommendation{RecSuccess,
			fmt.Sprintf("Favorito forte (%.1f%%): %s", p.Result.Probability*100, outcomeText(m, p.Result.Label))})
	case p.Result.Probability < Balanced:
		recs = append(recs, Recommendation{RecWarning,
			"Jogo equilibrado: risco de empate elevado, evite apostar em resultado"})
	}

	if p.Goals != nil && p.Goals.Probability > HighConfidence {
		recs = append(recs, Recommendation{RecInfo,
			fmt.Sprintf("%s com %.1f%% de confiança", goalsText(p.Goals.Label), p.Goals.Probability*100)})
	}
	if p.BothScore != nil && p.BothScore.Probability > HighConfidence {
		text := "Ambas marcam: SIM"
		if p.BothScore.Label == LabelBothNo {
			text = "Ambas marcam: NÃO"
		}
		recs = append(recs, Recommendation{RecInfo, fmt.Sprintf("%s (%.1f%%)", text, p.BothScore.Probability*100)})
	}

	// odds altas com probabilidade razoável
	for _, o := range []Pick{p.Outcomes[0], p.Outcomes[2]} {
		if o.Odd > ValueMinOdd && o.Probability > ValueMinProb {
			recs = append(recs, Recommendation{RecValue,
				fmt.Sprintf("%s tem valor (odd %.2f com %.1f%%)", outcomeText(m, o.Label), o.Odd, o.Probability*100)})
		}
	}
	return recs
}

func outcomeText(m match.Match, label string) string {
	switch match.Outcome(label) {
	case match.OutcomeHome:
		return "vitória da casa (" + m.TeamHome + ")"
	case match.OutcomeAway:
		return "vitória de fora (" + m.TeamAway + ")"
	default:
		return "empate"
	}
}

func goalsText(label string) string {
	if label == LabelOver {
		return "Over 2.5"
	}
	return "Under 2.5"
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
