package match

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		in      string
		want    Score
		outcome Outcome
		wantErr bool
	}{
		{in: "2-1", want: Score{2, 1}, outcome: OutcomeHome},
		{in: " 0-0 ", want: Score{0, 0}, outcome: OutcomeDraw},
		{in: "1-3", want: Score{1, 3}, outcome: OutcomeAway},
		{in: "10-2", want: Score{10, 2}, outcome: OutcomeHome},
		{in: "abc", wantErr: true},
		{in: "2 - 1", wantErr: true},
		{in: "2-", wantErr: true},
		{in: "", wantErr: true},
		{in: "-1-2", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseScore(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrBadScore) {
				t.Errorf("%q: err = %v, want ErrBadScore", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want || got.Outcome() != tc.outcome {
			t.Errorf("%q: got %+v %s", tc.in, got, got.Outcome())
		}
	}
}

func TestSetScoreKeepsInvariant(t *testing.T) {
	m := Match{Status: StatusLive}
	if !m.Consistent() {
		t.Fatal("empty live match should be consistent")
	}
	m.SetScore(Score{Home: 2, Away: 1})
	if *m.GoalsHome != 2 || *m.GoalsAway != 1 || *m.TotalGoals != 3 || *m.Result != OutcomeHome {
		t.Fatalf("unexpected outcome fields: %+v", m)
	}
	if m.Status != StatusFinished || !m.Consistent() {
		t.Fatalf("status = %s consistent = %v", m.Status, m.Consistent())
	}

	m.Status = StatusExpired
	if m.Consistent() {
		t.Fatal("goals without finished status must be inconsistent")
	}
}

func TestOddsFromProvider(t *testing.T) {
	raw := map[string]string{
		"odd_resultado_final_casa":       "1.80",
		"odd_resultado_final_empate":     "3,40",
		"odd_resultado_final_fora":       "-",
		"odd_over_2.5":                   "1.95",
		"odd_resultado_correto_fora_2-1": "9.00",
		"odd_handicap_asiatico_casa":     "abc",
		"odd_over_0.5":                   "NaN",
		"odd_under_0.5":                  "inf",
		"odd_over_1.5":                   "-Infinity",
		"odd_ambas_sim":                  "+Inf",
		"chave_desconhecida":             "2.00",
	}
	o := OddsFromProvider(raw)

	if o.Home == nil || *o.Home != 1.80 {
		t.Fatalf("home = %v", o.Home)
	}
	if o.Draw == nil || *o.Draw != 3.40 {
		t.Fatalf("draw with comma = %v", o.Draw)
	}
	if o.Away != nil || o.HandicapHome != nil {
		t.Fatal("unparseable values must be nil")
	}
	if o.Over05 != nil || o.Under05 != nil || o.Over15 != nil || o.BothScoreYes != nil {
		t.Fatalf("NaN/Inf must be nil: %v %v %v %v", o.Over05, o.Under05, o.Over15, o.BothScoreYes)
	}
	if _, err := json.Marshal(Match{Odds: o}); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if o.Correct21Away == nil || *o.Correct21Away != 9 {
		t.Fatalf("correct 2-1 away = %v", o.Correct21Away)
	}
	if o.Under25 != nil {
		t.Fatal("missing keys must be nil")
	}

	present := o.Present()
	if len(present) != 4 || present["odd_over_25"] != 1.95 {
		t.Fatalf("present = %v", present)
	}
}

func TestMarketsTable(t *testing.T) {
	seenCol := map[string]bool{}
	seenKey := map[string]bool{}
	var o Odds
	seenField := map[**float64]bool{}
	for _, mk := range Markets {
		if seenCol[mk.Column] || seenKey[mk.ProviderKey] {
			t.Fatalf("duplicate market %s / %s", mk.Column, mk.ProviderKey)
		}
		seenCol[mk.Column], seenKey[mk.ProviderKey] = true, true
		f := mk.Field(&o)
		if seenField[f] {
			t.Fatalf("field reused by %s", mk.Column)
		}
		seenField[f] = true
	}
	if len(Markets) != 44 {
		t.Fatalf("markets = %d", len(Markets))
	}
}

func TestScheduleFallback(t *testing.T) {
	if got := (Match{ScheduledTime: "21.05"}).Schedule(); got != "21.05" {
		t.Fatalf("schedule = %s", got)
	}
	if got := (Match{Hour: "7", Minute: "5"}).Schedule(); got != "7:05" {
		t.Fatalf("schedule from parts = %s", got)
	}
	if got := NormalizeHour("07"); got != "7" {
		t.Fatalf("hour = %s", got)
	}
}
