package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/shared/db"
)

var ErrNotFound = errors.New("not found")

var (
	headColumns = []string{
		"id", "external_id", "league", "team_home", "team_away",
		"hour", "minute", "scheduled_time", "match_date",
		"goals_home", "goals_away", "total_goals", "result",
	}
	tailColumns = []string{"odds_json", "status", "scraped_at", "updated_at", "scraper_log_id"}

	selectColumns = strings.Join(concat(headColumns, match.MarketColumns(), tailColumns), ", ")
	upsertQuery   = buildUpsert()
)

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildUpsert monta o INSERT ... ON CONFLICT; status, scraped_at e resultado ficam fora do SET
func buildUpsert() string {
	insertCols := concat(
		[]string{"external_id", "league", "team_home", "team_away", "hour", "minute", "scheduled_time", "match_date"},
		match.MarketColumns(),
		[]string{"odds_json", "status", "scraped_at", "updated_at", "scraper_log_id"},
	)
	var set []string
	for _, c := range insertCols {
		switch c {
		case "external_id", "status", "scraped_at":
			continue
		}
		set = append(set, c+" = excluded."+c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(insertCols)), ", ")
	return "INSERT INTO matches (" + strings.Join(insertCols, ", ") + ") VALUES (" + marks + ")" +
		" ON CONFLICT (external_id) DO UPDATE SET " + strings.Join(set, ", ")
}

// Matches é o repositório da tabela matches
type Matches struct {
	DB  *db.DB
	Now func() time.Time
}

func NewMatches(d *db.DB) *Matches {
	return &Matches{DB: d, Now: time.Now}
}

func (r *Matches) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(sc scanner) (match.Match, error) {
	var (
		m                             match.Match
		hour, minute, sched, oddsJSON sql.NullString
	)
	dest := []any{
		&m.ID, &m.ExternalID, &m.League, &m.TeamHome, &m.TeamAway,
		&hour, &minute, &sched, &m.MatchDate,
		&m.GoalsHome, &m.GoalsAway, &m.TotalGoals, &m.Result,
	}
	for _, mk := range match.Markets {
		dest = append(dest, mk.Field(&m.Odds))
	}
	dest = append(dest, &oddsJSON, &m.Status, &m.ScrapedAt, &m.UpdatedAt, &m.ScraperLogID)

	if err := sc.Scan(dest...); err != nil {
		return match.Match{}, err
	}
	m.Hour, m.Minute, m.ScheduledTime = hour.String, minute.String, sched.String
	if oddsJSON.Valid && oddsJSON.String != "" {
		m.OddsJSON = []byte(oddsJSON.String)
	}
	return m, nil
}

func (r *Matches) query(ctx context.Context, q string, args ...any) ([]match.Match, error) {
	rows, err := r.DB.QueryContext(ctx, r.DB.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertResult resume a gravação de um lote de odds
type UpsertResult struct {
	New     int
	Updated int
	Created map[string]bool // external_id -> criado neste lote
}

// UpsertOdds grava um lote (uma liga) numa única transação.
// Linhas existentes têm odds, horário e times sobrescritos; status, scraped_at e placar nunca são tocados.
func (r *Matches) UpsertOdds(ctx context.Context, ms []match.Match, runID *int64) (UpsertResult, error) {
	res := UpsertResult{Created: make(map[string]bool)}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	lookup := r.DB.Rebind(`SELECT id FROM matches WHERE external_id = ?`)
	upsert := r.DB.Rebind(upsertQuery)
	now := r.now()

	for _, m := range ms {
		var id int64
		err := tx.QueryRowContext(ctx, lookup, m.ExternalID).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res.New++
			res.Created[m.ExternalID] = true
		case err != nil:
			return res, fmt.Errorf("lookup %s: %w", m.ExternalID, err)
		default:
			res.Updated++
		}

		status := m.Status
		if status == "" {
			status = match.StatusScheduled
		}
		var oddsJSON any
		if len(m.OddsJSON) > 0 {
			oddsJSON = string(m.OddsJSON)
		}

		args := []any{m.ExternalID, m.League, m.TeamHome, m.TeamAway, m.Hour, m.Minute, m.ScheduledTime, utcPtr(m.MatchDate)}
		for _, mk := range match.Markets {
			args = append(args, *mk.Field(&m.Odds))
		}
		args = append(args, oddsJSON, string(status), now, now, runID)

		if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
			return res, fmt.Errorf("upsert %s: %w", m.ExternalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// ResultInput é um placar vindo do provedor para uma partida
type ResultInput struct {
	ExternalID string
	Score      match.Score
}

// ResultChange é uma linha cujo placar foi gravado ou alterado
type ResultChange struct {
	ID         int64
	ExternalID string
	League     string
	Score      match.Score
}

// ApplyOutcome resume a aplicação de resultados de uma liga
type ApplyOutcome struct {
	Changed   []ResultChange
	Unchanged int
	Missing   int
}

// ApplyResults grava os placares de uma liga numa transação.
// Partidas desconhecidas são contadas em Missing; placar igual já finished conta como Unchanged.
func (r *Matches) ApplyResults(ctx context.Context, in []ResultInput) (ApplyOutcome, error) {
	var out ApplyOutcome
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer tx.Rollback()

	lookup := r.DB.Rebind(`SELECT id, league, goals_home, goals_away, status FROM matches WHERE external_id = ?`)
	update := r.DB.Rebind(`
		UPDATE matches
		SET goals_home = ?, goals_away = ?, total_goals = ?, result = ?, status = ?, updated_at = ?
		WHERE id = ?`)
	now := r.now()

	for _, ri := range in {
		var (
			id     int64
			league string
			gh, ga sql.NullInt64
			status string
		)
		err := tx.QueryRowContext(ctx, lookup, ri.ExternalID).Scan(&id, &league, &gh, &ga, &status)
		if errors.Is(err, sql.ErrNoRows) {
			out.Missing++
			continue
		}
		if err != nil {
			return out, fmt.Errorf("lookup %s: %w", ri.ExternalID, err)
		}
		if status == string(match.StatusFinished) && gh.Valid && ga.Valid &&
			int(gh.Int64) == ri.Score.Home && int(ga.Int64) == ri.Score.Away {
			out.Unchanged++
			continue
		}
		if _, err := tx.ExecContext(ctx, update,
			ri.Score.Home, ri.Score.Away, ri.Score.Total(), string(ri.Score.Outcome()),
			string(match.StatusFinished), now, id,
		); err != nil {
			return out, fmt.Errorf("result %s: %w", ri.ExternalID, err)
		}
		out.Changed = append(out.Changed, ResultChange{ID: id, ExternalID: ri.ExternalID, League: league, Score: ri.Score})
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}
	return out, nil
}

// SetResult grava um placar manual pelo id interno
func (r *Matches) SetResult(ctx context.Context, id int64, s match.Score) (match.Match, error) {
	const q = `
		UPDATE matches
		SET goals_home = ?, goals_away = ?, total_goals = ?, result = ?, status = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(q),
		s.Home, s.Away, s.Total(), string(s.Outcome()), string(match.StatusFinished), r.now(), id)
	if err != nil {
		return match.Match{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return match.Match{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Get busca uma partida pelo id interno
func (r *Matches) Get(ctx context.Context, id int64) (match.Match, error) {
	q := `SELECT ` + selectColumns + ` FROM matches WHERE id = ?`
	m, err := scanMatch(r.DB.QueryRowContext(ctx, r.DB.Rebind(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return match.Match{}, ErrNotFound
	}
	return m, err
}

// Filter restringe List; campos vazios não filtram
type Filter struct {
	League string
	Status match.Status
	Limit  int
}

// List devolve as partidas mais recentes primeiro
func (r *Matches) List(ctx context.Context, f Filter) ([]match.Match, error) {
	var (
		where []string
		args  []any
	)
	if f.League != "" {
		where = append(where, "league = ?")
		args = append(args, f.League)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	q := `SELECT ` + selectColumns + ` FROM matches`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return r.query(ctx, q, args...)
}

// FindBySchedule devolve a partida marcada para hour:minute, preferindo scheduled/live e a mais nova
func (r *Matches) FindBySchedule(ctx context.Context, hour, minute string) (match.Match, error) {
	q := `SELECT ` + selectColumns + ` FROM matches
		WHERE hour = ? AND minute = ?
		ORDER BY CASE WHEN status IN ('scheduled', 'live') THEN 0 ELSE 1 END, id DESC
		LIMIT 1`
	m, err := scanMatch(r.DB.QueryRowContext(ctx, r.DB.Rebind(q), match.NormalizeHour(hour), match.PadMinute(minute)))
	if errors.Is(err, sql.ErrNoRows) {
		return match.Match{}, ErrNotFound
	}
	return m, err
}

// Upcoming lista partidas ainda não encerradas (scheduled/live)
func (r *Matches) Upcoming(ctx context.Context, limit int) ([]match.Match, error) {
	q := `SELECT ` + selectColumns + ` FROM matches
		WHERE status IN ('scheduled', 'live')
		ORDER BY match_date, id
		LIMIT ?`
	return r.query(ctx, q, limit)
}

// Finished lista partidas encerradas com placar, mais recentes primeiro
func (r *Matches) Finished(ctx context.Context, limit int) ([]match.Match, error) {
	q := `SELECT ` + selectColumns + ` FROM matches
		WHERE status = 'finished' AND goals_home IS NOT NULL AND goals_away IS NOT NULL
		ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.query(ctx, q, args...)
}

// PendingStatus lista as linhas que a sincronização de status precisa avaliar
func (r *Matches) PendingStatus(ctx context.Context) ([]match.Match, error) {
	q := `SELECT ` + selectColumns + ` FROM matches
		WHERE result IS NULL OR status <> 'finished'
		ORDER BY id`
	return r.query(ctx, q)
}

// UpdateStatuses grava os novos status numa única transação
func (r *Matches) UpdateStatuses(ctx context.Context, changes map[int64]match.Status) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	q := r.DB.Rebind(`UPDATE matches SET status = ? WHERE id = ?`)
	n := 0
	for id, st := range changes {
		res, err := tx.ExecContext(ctx, q, string(st), id)
		if err != nil {
			return 0, fmt.Errorf("status %d: %w", id, err)
		}
		if a, _ := res.RowsAffected(); a > 0 {
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// RepairOutcome reescreve total, resultado e status a partir dos gols já gravados
func (r *Matches) RepairOutcome(ctx context.Context, scores map[int64]match.Score) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	q := r.DB.Rebind(`
		UPDATE matches
		SET goals_home = ?, goals_away = ?, total_goals = ?, result = ?, status = ?, updated_at = ?
		WHERE id = ?`)
	now := r.now()
	n := 0
	for id, sc := range scores {
		res, err := tx.ExecContext(ctx, q,
			sc.Home, sc.Away, sc.Total(), string(sc.Outcome()), string(match.StatusFinished), now, id)
		if err != nil {
			return 0, fmt.Errorf("repair %d: %w", id, err)
		}
		if a, _ := res.RowsAffected(); a > 0 {
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Count devolve o total de linhas
func (r *Matches) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n)
	return n, err
}

// InvariantViolations conta linhas em que placar preenchido e status finished divergem
func (r *Matches) InvariantViolations(ctx context.Context) (int64, error) {
	const q = `
		SELECT COUNT(*) FROM matches
		WHERE (status = 'finished' AND (goals_home IS NULL OR goals_away IS NULL OR total_goals IS NULL OR result IS NULL))
		   OR (status <> 'finished' AND (goals_home IS NOT NULL OR goals_away IS NOT NULL OR total_goals IS NOT NULL OR result IS NOT NULL))`
	var n int64
	err := r.DB.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// Prune remove partidas capturadas antes de cutoff
func (r *Matches) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM matches WHERE scraped_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LeagueStats são os contadores de uma liga
type LeagueStats struct {
	League    string `json:"league"`
	Total     int64  `json:"total"`
	Finished  int64  `json:"finished"`
	Scheduled int64  `json:"scheduled"`
	Live      int64  `json:"live"`
	Expired   int64  `json:"expired"`
}

// Stats agrega os contadores de todas as ligas
type Stats struct {
	Total     int64         `json:"total_matches"`
	Finished  int64         `json:"finished_matches"`
	Scheduled int64         `json:"scheduled_matches"`
	Live      int64         `json:"live_matches"`
	Expired   int64         `json:"expired_matches"`
	Leagues   []LeagueStats `json:"leagues"`
}

func (r *Matches) Stats(ctx context.Context) (Stats, error) {
	const q = `
		SELECT league,
		       COUNT(*),
		       SUM(CASE WHEN status = 'finished' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = 'scheduled' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = 'live' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = 'expired' THEN 1 ELSE 0 END)
		FROM matches
		GROUP BY league
		ORDER BY league`
	var s Stats
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	s.Leagues = []LeagueStats{}
	for rows.Next() {
		var l LeagueStats
		if err := rows.Scan(&l.League, &l.Total, &l.Finished, &l.Scheduled, &l.Live, &l.Expired); err != nil {
			return s, err
		}
		s.Total += l.Total
		s.Finished += l.Finished
		s.Scheduled += l.Scheduled
		s.Live += l.Live
		s.Expired += l.Expired
		s.Leagues = append(s.Leagues, l)
	}
	return s, rows.Err()
}

// AverageOdds é a média das odds 1X2; nil quando não há odds
type AverageOdds struct {
	Home *float64 `json:"home"`
	Draw *float64 `json:"draw"`
	Away *float64 `json:"away"`
}

func (r *Matches) AverageOdds(ctx context.Context) (AverageOdds, error) {
	var h, d, a sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `SELECT AVG(odd_home), AVG(odd_draw), AVG(odd_away) FROM matches`).Scan(&h, &d, &a)
	if err != nil {
		return AverageOdds{}, err
	}
	return AverageOdds{Home: nullFloat(h), Draw: nullFloat(d), Away: nullFloat(a)}, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
