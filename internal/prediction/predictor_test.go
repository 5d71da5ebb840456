package prediction

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charlieloganx23/apibet/internal/match"
)

func f(v float64) *float64 { return &v }

func sampleMatch() match.Match {
	m := match.Match{ID: 7, League: "euro", TeamHome: "Espanha", TeamAway: "Itália", Hour: "21", Minute: "05"}
	m.Home, m.Draw, m.Away = f(1.50), f(4.20), f(6.50)
	m.Over25, m.Under25 = f(1.55), f(2.40)
	m.BothScoreYes, m.BothScoreNo = f(1.90), f(1.85)
	m.Correct10Home, m.Correct20Home, m.Correct21Home = f(6.0), f(7.0), f(8.5)
	m.Correct00, m.Correct11 = f(11.0), f(9.0)
	m.Correct10Away = f(17.0)
	return m
}

func TestPredictStrongFavorite(t *testing.T) {
	p, err := Predict(sampleMatch())
	if err != nil {
		t.Fatal(err)
	}
	if p.Result.Label != "home" || !p.IsFavoriteStrong {
		t.Fatalf("result = %+v strong = %v", p.Result, p.IsFavoriteStrong)
	}
	var sum float64
	for _, o := range p.Outcomes {
		sum += o.Probability
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("outcomes sum = %v", sum)
	}
	if p.Margin < 0.058 || p.Margin > 0.059 {
		t.Fatalf("margin = %v", p.Margin)
	}
	if p.Goals == nil || p.Goals.Label != LabelOver {
		t.Fatalf("goals = %+v", p.Goals)
	}
	if p.BothScore == nil || p.BothScore.Label != LabelBothNo {
		t.Fatalf("both score = %+v", p.BothScore)
	}
	if len(p.Scores) != TopScores || p.PredictedScore() != "1-0" {
		t.Fatalf("scores = %+v", p.Scores)
	}
	for i := 1; i < len(p.Scores); i++ {
		if p.Scores[i].Probability > p.Scores[i-1].Probability {
			t.Fatal("scores must be sorted by probability")
		}
	}
	if p.Recommendations[0].Type != RecSuccess || !strings.Contains(p.Recommendations[0].Text, "Espanha") {
		t.Fatalf("first recommendation = %+v", p.Recommendations[0])
	}
	// over 2.5 implícito 1/1.55 = 64.5% > 60%
	if !hasRec(p, RecInfo, "Over 2.5") {
		t.Fatalf("missing over recommendation: %+v", p.Recommendations)
	}
}

func TestPredictBalancedAndValue(t *testing.T) {
	m := match.Match{TeamHome: "A", TeamAway: "B"}
	m.Home, m.Draw, m.Away = f(3.10), f(3.20), f(2.40)
	p, err := Predict(m)
	if err != nil {
		t.Fatal(err)
	}
	if p.Result.Label != "away" || p.IsFavoriteStrong {
		t.Fatalf("result = %+v", p.Result)
	}
	if !hasRec(p, RecWarning, "equilibrado") {
		t.Fatalf("missing balanced warning: %+v", p.Recommendations)
	}
	// casa: odd 3.10 > 3.0 com ~31% normalizado
	if !hasRec(p, RecValue, "casa") {
		t.Fatalf("missing value bet: %+v", p.Recommendations)
	}
	if p.Goals != nil || p.BothScore != nil || p.PredictedScore() != "" {
		t.Fatal("absent markets must stay empty")
	}
}

func TestPredictMissingOdds(t *testing.T) {
	m := sampleMatch()
	m.Draw = nil
	if _, err := Predict(m); !errors.Is(err, ErrMissingOdds) {
		t.Fatalf("err = %v", err)
	}
}

func TestValue(t *testing.T) {
	p := Prediction{Result: Pick{Odd: 2.5, Probability: 0.5}}
	if math.Abs(p.Value()-25) > 1e-9 {
		t.Fatalf("value = %v", p.Value())
	}
}

func TestEvaluateAndTracker(t *testing.T) {
	win := sampleMatch() // previsão: casa, 1-0, over
	win.SetScore(match.Score{Home: 1, Away: 0})

	loss := sampleMatch()
	loss.SetScore(match.Score{Home: 0, Away: 2})

	noOdds := match.Match{}
	noOdds.SetScore(match.Score{Home: 1, Away: 1})

	tr := NewTracker()
	tr.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	s := tr.Refresh([]match.Match{win, loss, noOdds, sampleMatch()})

	if s.TotalPredictions != 2 || s.CorrectWinners != 1 || s.CorrectScores != 1 {
		t.Fatalf("summary = %+v", s)
	}
	// over previsto; 1-0 e 0-2 ficam abaixo de 2.5
	if s.OverUnderEvaluated != 2 || s.CorrectOverUnder != 0 {
		t.Fatalf("over/under = %+v", s)
	}
	winner, exact, ou := s.Accuracy()
	if winner != 50 || exact != 50 || ou != 0 {
		t.Fatalf("accuracy = %v %v %v", winner, exact, ou)
	}
	if tr.Snapshot() != s {
		t.Fatal("snapshot must match last refresh")
	}
}

func TestFeatures(t *testing.T) {
	v, ok := Features(sampleMatch())
	if !ok || len(v) != len(FeatureNames) {
		t.Fatalf("features = %v %v", v, ok)
	}
	if math.Abs(v[17]-(1.50-6.50)) > 1e-9 {
		t.Fatalf("odd_diff = %v", v[17])
	}
	m := sampleMatch()
	m.Over25 = nil
	if _, ok := Features(m); ok {
		t.Fatal("missing over 2.5 must fail")
	}
}

func hasRec(p Prediction, typ, substr string) bool {
	for _, r := range p.Recommendations {
		if r.Type == typ && strings.Contains(r.Text, substr) {
			return true
		}
	}
	return false
}
