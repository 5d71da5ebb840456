package prediction

import "github.com/charlieloganx23/apibet/internal/match"

// FeatureNames é o vetor usado no treino do classificador externo:
// odds brutas seguidas de probabilidades implícitas e derivados
var FeatureNames = []string{
	"odd_home", "odd_draw", "odd_away",
	"odd_over_25", "odd_under_25",
	"odd_both_score_yes", "odd_both_score_no",
	"odd_exact_goals_0", "odd_exact_goals_1", "odd_exact_goals_2", "odd_exact_goals_3",
	"prob_home", "prob_draw", "prob_away",
	"prob_over_25", "prob_under_25", "prob_both_score",
	"odd_diff", "prob_diff", "expected_goals_low",
}

// Features monta o vetor na ordem de FeatureNames.
// ok=false quando faltam as odds exigidas (1X2 e over/under 2.5).
func Features(m match.Match) ([]float64, bool) {
	if m.Home == nil || m.Draw == nil || m.Away == nil || m.Over25 == nil || m.Under25 == nil {
		return nil, false
	}
	probHome := ImpliedPtr(m.Home)
	probAway := ImpliedPtr(m.Away)
	expectedLow := (0*ImpliedPtr(m.ExactGoals0) + 1*ImpliedPtr(m.ExactGoals1) + 2*ImpliedPtr(m.ExactGoals2)) / 3

	return []float64{
		*m.Home, *m.Draw, *m.Away,
		*m.Over25, *m.Under25,
		deref(m.BothScoreYes), deref(m.BothScoreNo),
		deref(m.ExactGoals0), deref(m.ExactGoals1), deref(m.ExactGoals2), deref(m.ExactGoals3),
		probHome, ImpliedPtr(m.Draw), probAway,
		ImpliedPtr(m.Over25), ImpliedPtr(m.Under25), ImpliedPtr(m.BothScoreYes),
		*m.Home - *m.Away, probHome - probAway, expectedLow,
	}, true
}
