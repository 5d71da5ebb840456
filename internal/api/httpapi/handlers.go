package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/ingest"
	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/prediction"
	"github.com/charlieloganx23/apibet/internal/provider"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

const (
	matchTTL = 30 * time.Second
	statsTTL = 10 * time.Second
)

func (a *API) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "apibet - futebol virtual",
		"version": a.Version,
		"status":  "online",
		"endpoints": map[string]string{
			"matches":         "/api/matches",
			"match":           "/api/matches/{id}",
			"result":          "/api/matches/{id}/result",
			"stats":           "/api/stats",
			"predict":         "/api/predict",
			"scraper_status":  "/api/scraper/status",
			"logs":            "/api/logs",
			"analytics":       "/api/analytics/overview",
			"recommendations": "/api/recommendations",
			"export_csv":      "/api/export/csv",
			"websocket":       "/ws",
		},
	})
}

// listMatches retorna as partidas mais recentes, com filtros opcionais de liga e status
func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(r, "limit", 100, 1000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := repository.Filter{
		League: strings.ToLower(strings.TrimSpace(q.Get("league"))),
		Status: match.Status(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		Limit:  limit,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status: "+string(f.Status))
		return
	}

	ms, err := a.Matches.List(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if ms == nil {
		ms = []match.Match{}
	}
	writeJSON(w, http.StatusOK, ms)
}

// getMatch retorna uma partida, preferencialmente do cache
func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cached match.Match
	if ok, _ := a.Cache.GetMatch(r.Context(), id, &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	m, err := a.Matches.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	_ = a.Cache.SetMatch(r.Context(), id, m, matchTTL)
	writeJSON(w, http.StatusOK, m)
}

type resultRequest struct {
	GoalsHome *int `json:"goals_home"`
	GoalsAway *int `json:"goals_away"`
}

// setResult grava um placar manual, avisa os clientes do /ws e publica o evento
func (a *API) setResult(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.GoalsHome == nil || req.GoalsAway == nil || *req.GoalsHome < 0 || *req.GoalsAway < 0 {
		writeError(w, http.StatusBadRequest, "goals_home and goals_away must be non-negative integers")
		return
	}

	score := match.Score{Home: *req.GoalsHome, Away: *req.GoalsAway}
	m, err := a.Matches.SetResult(r.Context(), id, score)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	_ = a.Cache.InvalidateMatch(r.Context(), id)

	if n := a.notifier(); n != nil {
		f := events.Frame{
			Type:      events.FrameResultUpdated,
			Message:   fmt.Sprintf("%s %s %s", m.TeamHome, score, m.TeamAway),
			MatchID:   m.ID,
			GoalsHome: m.GoalsHome,
			GoalsAway: m.GoalsAway,
			Timestamp: now(),
		}
		if err := n.Notify(r.Context(), f); err != nil {
			a.Log.Warn("notify manual result failed", zap.Error(err))
		}
	}
	if a.Events != nil {
		if err := a.Events.PublishResult(r.Context(), ingest.ResultEvent(m.ID, m.ExternalID, m.League, score, "manual")); err != nil {
			a.Log.Warn("publish manual result failed", zap.Error(err))
		}
	}

	a.Log.Info("manual result recorded", zap.Int64("id", m.ID), zap.String("score", score.String()))
	writeJSON(w, http.StatusOK, m)
}

type statsResponse struct {
	repository.Stats
	LastExecution *repository.Run `json:"last_execution"`
}

// stats agrega totais por status e liga, com a última execução
func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	var cached statsResponse
	if ok, _ := a.Cache.GetStats(r.Context(), &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	st, err := a.Matches.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	last, err := a.Runs.Latest(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := statsResponse{Stats: st, LastExecution: last}
	_ = a.Cache.SetStats(r.Context(), resp, statsTTL)
	writeJSON(w, http.StatusOK, resp)
}

// predictRequest aceita hour/minute como texto ou número
type predictRequest struct {
	Hour   provider.Value `json:"hour"`
	Minute provider.Value `json:"minute"`
}

type predictedMatch struct {
	ID            int64        `json:"id"`
	League        string       `json:"league"`
	TeamHome      string       `json:"team_home"`
	TeamAway      string       `json:"team_away"`
	ScheduledTime string       `json:"scheduled_time"`
	Status        match.Status `json:"status"`
	OddHome       *float64     `json:"odd_home"`
	OddDraw       *float64     `json:"odd_draw"`
	OddAway       *float64     `json:"odd_away"`
}

// predict localiza a partida pelo horário e aplica a heurística de probabilidade implícita
func (a *API) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	hour, minute := strings.TrimSpace(req.Hour.String()), strings.TrimSpace(req.Minute.String())
	if _, err := strconv.Atoi(hour); err != nil {
		writeError(w, http.StatusBadRequest, "hour is required")
		return
	}
	if _, err := strconv.Atoi(minute); err != nil {
		writeError(w, http.StatusBadRequest, "minute is required")
		return
	}

	m, err := a.Matches.FindBySchedule(r.Context(), hour, minute)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no match at %s:%s", hour, match.PadMinute(minute)))
			return
		}
		a.fail(w, r, err)
		return
	}

	p, err := prediction.Predict(m)
	if errors.Is(err, prediction.ErrMissingOdds) {
		writeError(w, http.StatusUnprocessableEntity, "match has no 1x2 odds")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"match": predictedMatch{
			ID: m.ID, League: m.League, TeamHome: m.TeamHome, TeamAway: m.TeamAway,
			ScheduledTime: m.Schedule(), Status: m.Status,
			OddHome: m.Odds.Home, OddDraw: m.Odds.Draw, OddAway: m.Odds.Away,
		},
		"prediction":      p,
		"predicted_score": p.PredictedScore(),
		"confidence":      round1(p.Result.Probability * 100),
	})
}

func (a *API) scraperStatus(w http.ResponseWriter, r *http.Request) {
	last, err := a.Runs.Latest(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running":        a.Runner != nil && a.Runner.Running(),
		"last_execution": last,
	})
}

func (a *API) scraperStart(w http.ResponseWriter, r *http.Request) {
	if a.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	status := "already_running"
	if a.Runner.Start(a.baseContext()) {
		status = "started"
		a.Log.Info("scheduler started via api")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (a *API) scraperStop(w http.ResponseWriter, r *http.Request) {
	if a.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	status := "not_running"
	if a.Runner.Stop() {
		status = "stopped"
		a.Log.Info("scheduler stopped via api")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// scraperRun executa um ciclo completo de forma síncrona
func (a *API) scraperRun(w http.ResponseWriter, r *http.Request) {
	if a.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	rep, err := a.Runner.TriggerOnce(r.Context())
	status := "completed"
	if err != nil {
		status = "completed_with_errors"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "report": rep})
}

func (a *API) logs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 20, 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := a.Runs.List(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// analyticsOverview junta acurácia da heurística, totais e médias de odds
func (a *API) analyticsOverview(w http.ResponseWriter, r *http.Request) {
	st, err := a.Matches.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	avg, err := a.Matches.AverageOdds(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	winner, exact, ou := a.Tracker.Snapshot().Accuracy()

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"accuracy": map[string]float64{
				"winner":      winner,
				"exact_score": exact,
				"over_under":  ou,
			},
			"total_matches":    st.Total,
			"finished_matches": st.Finished,
			"leagues":          st.Leagues,
			"avg_odds":         avg,
		},
	})
}

func (a *API) predictionStats(w http.ResponseWriter, r *http.Request) {
	s := a.Tracker.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"stats":             s,
		"scheduler_running": a.Runner != nil && a.Runner.Running(),
	})
}

type recommendationItem struct {
	MatchID         int64    `json:"match_id"`
	League          string   `json:"league"`
	TeamHome        string   `json:"team_home"`
	TeamAway        string   `json:"team_away"`
	ScheduledTime   string   `json:"scheduled_time"`
	PredictedWinner string   `json:"predicted_winner"`
	Confidence      float64  `json:"confidence"`
	PredictedScore  string   `json:"predicted_score,omitempty"`
	Odd             float64  `json:"odd"`
	Value           float64  `json:"value"`
	Tips            []string `json:"tips,omitempty"`
}

// recommendations lista as partidas futuras cuja confiança passa do mínimo (percentual)
func (a *API) recommendations(w http.ResponseWriter, r *http.Request) {
	minConf := 70.0
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 100 {
			writeError(w, http.StatusBadRequest, "invalid min_confidence")
			return
		}
		minConf = v
	}

	upcoming, err := a.Matches.Upcoming(r.Context(), 200)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	out := []recommendationItem{}
	for _, m := range upcoming {
		p, err := prediction.Predict(m)
		if err != nil {
			continue
		}
		conf := p.Result.Probability * 100
		if conf < minConf {
			continue
		}
		item := recommendationItem{
			MatchID: m.ID, League: m.League, TeamHome: m.TeamHome, TeamAway: m.TeamAway,
			ScheduledTime:   m.Schedule(),
			PredictedWinner: p.Result.Label,
			Confidence:      round1(conf),
			PredictedScore:  p.PredictedScore(),
			Odd:             p.Result.Odd,
			Value:           round1(p.Value()),
		}
		for _, rec := range p.Recommendations {
			item.Tips = append(item.Tips, rec.Text)
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "recommendations": out})
}

// exportCSV devolve as partidas encerradas com features e rótulos em CSV
func (a *API) exportCSV(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 1000, 10000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	finished, err := a.Matches.Finished(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var b strings.Builder
	rows, err := WriteCSV(&b, finished)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"filename": "matches_export_" + now().Format("20060102_150405") + ".csv",
		"rows":     rows,
		"content":  b.String(),
	})
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
