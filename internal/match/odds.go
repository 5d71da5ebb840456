package match

import (
	"math"
	"strconv"
	"strings"
)

// Odds agrupa os ~50 mercados opcionais de uma partida (nil = mercado ausente)
type Odds struct {
	Home *float64 `json:"odd_home"`
	Draw *float64 `json:"odd_draw"`
	Away *float64 `json:"odd_away"`

	Over05  *float64 `json:"odd_over_05"`
	Under05 *float64 `json:"odd_under_05"`
	Over15  *float64 `json:"odd_over_15"`
	Under15 *float64 `json:"odd_under_15"`
	Over25  *float64 `json:"odd_over_25"`
	Under25 *float64 `json:"odd_under_25"`
	Over35  *float64 `json:"odd_over_35"`
	Under35 *float64 `json:"odd_under_35"`

	BothScoreYes *float64 `json:"odd_both_score_yes"`
	BothScoreNo  *float64 `json:"odd_both_score_no"`

	Correct10Home *float64 `json:"odd_correct_1_0_home"`
	Correct00     *float64 `json:"odd_correct_0_0"`
	Correct10Away *float64 `json:"odd_correct_1_0_away"`
	Correct20Home *float64 `json:"odd_correct_2_0_home"`
	Correct11     *float64 `json:"odd_correct_1_1"`
	Correct20Away *float64 `json:"odd_correct_2_0_away"`
	Correct21Home *float64 `json:"odd_correct_2_1_home"`
	Correct22     *float64 `json:"odd_correct_2_2"`
	Correct21Away *float64 `json:"odd_correct_2_1_away"`

	DoubleHomeDraw *float64 `json:"odd_double_home_draw"`
	DoubleAwayDraw *float64 `json:"odd_double_away_draw"`
	DoubleHomeAway *float64 `json:"odd_double_home_away"`

	ExactGoals0 *float64 `json:"odd_exact_goals_0"`
	ExactGoals1 *float64 `json:"odd_exact_goals_1"`
	ExactGoals2 *float64 `json:"odd_exact_goals_2"`
	ExactGoals3 *float64 `json:"odd_exact_goals_3"`
	ExactGoals4 *float64 `json:"odd_exact_goals_4"`
	ExactGoals5 *float64 `json:"odd_exact_goals_5"`

	HalftimeHome *float64 `json:"odd_halftime_home"`
	HalftimeDraw *float64 `json:"odd_halftime_draw"`
	HalftimeAway *float64 `json:"odd_halftime_away"`

	HomeGoals0 *float64 `json:"odd_home_goals_0"`
	HomeGoals1 *float64 `json:"odd_home_goals_1"`
	HomeGoals2 *float64 `json:"odd_home_goals_2"`
	HomeGoals3 *float64 `json:"odd_home_goals_3"`
	AwayGoals0 *float64 `json:"odd_away_goals_0"`
	AwayGoals1 *float64 `json:"odd_away_goals_1"`
	AwayGoals2 *float64 `json:"odd_away_goals_2"`
	AwayGoals3 *float64 `json:"odd_away_goals_3"`

	HandicapHome *float64 `json:"odd_handicap_home"`
	HandicapAway *float64 `json:"odd_handicap_away"`
}

// Market liga uma coluna do banco à chave do provedor e ao campo de Odds.
// A ordem de Markets define a ordem das colunas em SQL e no CSV.
type Market struct {
	Column      string
	ProviderKey string
	Field       func(*Odds) **float64
}

var Markets = []Market{
	{"odd_home", "odd_resultado_final_casa", func(o *Odds) **float64 { return &o.Home }},
	{"odd_draw", "odd_resultado_final_empate", func(o *Odds) **float64 { return &o.Draw }},
	{"odd_away", "odd_resultado_final_fora", func(o *Odds) **float64 { return &o.Away }},

	{"odd_over_05", "odd_over_0.5", func(o *Odds) **float64 { return &o.Over05 }},
	{"odd_under_05", "odd_under_0.5", func(o *Odds) **float64 { return &o.Under05 }},
	{"odd_over_15", "odd_over_1.5", func(o *Odds) **float64 { return &o.Over15 }},
	{"odd_under_15", "odd_under_1.5", func(o *Odds) **float64 { return &o.Under15 }},
	{"odd_over_25", "odd_over_2.5", func(o *Odds) **float64 { return &o.Over25 }},
	{"odd_under_25", "odd_under_2.5", func(o *Odds) **float64 { return &o.Under25 }},
	{"odd_over_35", "odd_over_3.5", func(o *Odds) **float64 { return &o.Over35 }},
	{"odd_under_35", "odd_under_3.5", func(o *Odds) **float64 { return &o.Under35 }},

	{"odd_both_score_yes", "odd_ambas_sim", func(o *Odds) **float64 { return &o.BothScoreYes }},
	{"odd_both_score_no", "odd_ambas_nao", func(o *Odds) **float64 { return &o.BothScoreNo }},

	{"odd_correct_1_0_home", "odd_resultado_correto_casa_1-0", func(o *Odds) **float64 { return &o.Correct10Home }},
	{"odd_correct_0_0", "odd_resultado_correto_empate_0-0", func(o *Odds) **float64 { return &o.Correct00 }},
	{"odd_correct_1_0_away", "odd_resultado_correto_fora_1-0", func(o *Odds) **float64 { return &o.Correct10Away }},
	{"odd_correct_2_0_home", "odd_resultado_correto_casa_2-0", func(o *Odds) **float64 { return &o.Correct20Home }},
	{"odd_correct_1_1", "odd_resultado_correto_empate_1-1", func(o *Odds) **float64 { return &o.Correct11 }},
	{"odd_correct_2_0_away", "odd_resultado_correto_fora_2-0", func(o *Odds) **float64 { return &o.Correct20Away }},
	{"odd_correct_2_1_home", "odd_resultado_correto_casa_2-1", func(o *Odds) **float64 { return &o.Correct21Home }},
	{"odd_correct_2_2", "odd_resultado_correto_empate_2-2", func(o *Odds) **float64 { return &o.Correct22 }},
	{"odd_correct_2_1_away", "odd_resultado_correto_fora_2-1", func(o *Odds) **float64 { return &o.Correct21Away }},

	{"odd_double_home_draw", "odd_dupla_hipotese_casa_ou_empate", func(o *Odds) **float64 { return &o.DoubleHomeDraw }},
	{"odd_double_away_draw", "odd_dupla_hipotese_fora_ou_empate", func(o *Odds) **float64 { return &o.DoubleAwayDraw }},
	{"odd_double_home_away", "odd_dupla_hipotese_casa_ou_fora", func(o *Odds) **float64 { return &o.DoubleHomeAway }},

	{"odd_exact_goals_0", "odd_total_gols_extatos_0", func(o *Odds) **float64 { return &o.ExactGoals0 }},
	{"odd_exact_goals_1", "odd_total_gols_extatos_1", func(o *Odds) **float64 { return &o.ExactGoals1 }},
	{"odd_exact_goals_2", "odd_total_gols_extatos_2", func(o *Odds) **float64 { return &o.ExactGoals2 }},
	{"odd_exact_goals_3", "odd_total_gols_extatos_3", func(o *Odds) **float64 { return &o.ExactGoals3 }},
	{"odd_exact_goals_4", "odd_total_gols_extatos_4", func(o *Odds) **float64 { return &o.ExactGoals4 }},
	{"odd_exact_goals_5", "odd_total_gols_extatos_5", func(o *Odds) **float64 { return &o.ExactGoals5 }},

	{"odd_halftime_home", "odd_intervalo_resultado_casa", func(o *Odds) **float64 { return &o.HalftimeHome }},
	{"odd_halftime_draw", "odd_intervalo_resultado_empate", func(o *Odds) **float64 { return &o.HalftimeDraw }},
	{"odd_halftime_away", "odd_intervalo_resultado_fora", func(o *Odds) **float64 { return &o.HalftimeAway }},

	{"odd_home_goals_0", "odd_time_gols_casa_0", func(o *Odds) **float64 { return &o.HomeGoals0 }},
	{"odd_home_goals_1", "odd_time_gols_casa_1", func(o *Odds) **float64 { return &o.HomeGoals1 }},
	{"odd_home_goals_2", "odd_time_gols_casa_2", func(o *Odds) **float64 { return &o.HomeGoals2 }},
	{"odd_home_goals_3", "odd_time_gols_casa_3", func(o *Odds) **float64 { return &o.HomeGoals3 }},
	{"odd_away_goals_0", "odd_time_gols_fora_0", func(o *Odds) **float64 { return &o.AwayGoals0 }},
	{"odd_away_goals_1", "odd_time_gols_fora_1", func(o *Odds) **float64 { return &o.AwayGoals1 }},
	{"odd_away_goals_2", "odd_time_gols_fora_2", func(o *Odds) **float64 { return &o.AwayGoals2 }},
	{"odd_away_goals_3", "odd_time_gols_fora_3", func(o *Odds) **float64 { return &o.AwayGoals3 }},

	{"odd_handicap_home", "odd_handicap_asiatico_casa", func(o *Odds) **float64 { return &o.HandicapHome }},
	{"odd_handicap_away", "odd_handicap_asiatico_fora", func(o *Odds) **float64 { return &o.HandicapAway }},
}

// MarketColumns lista as colunas de odds na ordem de Markets
func MarketColumns() []string {
	cols := make([]string, len(Markets))
	for i, mk := range Markets {
		cols[i] = mk.Column
	}
	return cols
}

// ParseOdd converte o valor textual do provedor; vazio, "-", zero, NaN, infinito ou lixo viram nil
func ParseOdd(raw string) *float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil
	}
	return &v
}

// OddsFromProvider preenche Odds a partir do mapa chave-do-provedor -> valor
func OddsFromProvider(raw map[string]string) Odds {
	var o Odds
	for _, mk := range Markets {
		if v, ok := raw[mk.ProviderKey]; ok {
			*mk.Field(&o) = ParseOdd(v)
		}
	}
	return o
}

// Present devolve coluna -> odd apenas para os mercados preenchidos
func (o *Odds) Present() map[string]float64 {
	out := make(map[string]float64)
	for _, mk := range Markets {
		if p := *mk.Field(o); p != nil {
			out[mk.Column] = *p
		}
	}
	return out
}
