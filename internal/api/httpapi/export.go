package httpapi

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/prediction"
)

var csvHead = []string{
	"id", "external_id", "league", "team_home", "team_away", "scheduled_time",
	"goals_home", "goals_away", "total_goals", "result",
}

// WriteCSV escreve identificação, rótulos e o vetor de features de cada partida.
// Features ficam vazias quando faltam as odds exigidas.
func WriteCSV(w io.Writer, ms []match.Match) (int, error) {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, csvHead...), prediction.FeatureNames...)
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	rows := 0
	for _, m := range ms {
		rec := []string{
			strconv.FormatInt(m.ID, 10), m.ExternalID, m.League, m.TeamHome, m.TeamAway, m.Schedule(),
			intCell(m.GoalsHome), intCell(m.GoalsAway), intCell(m.TotalGoals), outcomeCell(m.Result),
		}
		feats, ok := prediction.Features(m)
		for i := range prediction.FeatureNames {
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(feats[i], 'f', 4, 64))
		}
		if err := cw.Write(rec); err != nil {
			return rows, err
		}
		rows++
	}
	cw.Flush()
	return rows, cw.Error()
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func outcomeCell(o *match.Outcome) string {
	if o == nil {
		return ""
	}
	return string(*o)
}
