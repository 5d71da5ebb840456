package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/charlieloganx23/apibet/internal/shared/db"
)

// Estados de uma execução em scraper_logs
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunPartial = "partial"
	RunError   = "error"
)

// Modos de execução
const (
	ModeOdds    = "odds"
	ModeResults = "results"
	ModeSync    = "sync"
)

// Run é uma linha de scraper_logs
type Run struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"run_uuid"`
	Status       string     `json:"status"`
	Found        int        `json:"matches_found"`
	New          int        `json:"matches_new"`
	Updated      int        `json:"matches_updated"`
	Leagues      []string   `json:"leagues_scraped"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	Mode         string     `json:"scraper_mode"`
}

// RunStatus aplica a regra: sem erros = success; algum sucesso = partial; nenhum = error
func RunStatus(succeeded, failed int) string {
	switch {
	case failed == 0:
		return RunSuccess
	case succeeded > 0:
		return RunPartial
	default:
		return RunError
	}
}

// Runs é o repositório de scraper_logs
type Runs struct {
	DB  *db.DB
	Now func() time.Time
}

func NewRuns(d *db.DB) *Runs {
	return &Runs{DB: d, Now: time.Now}
}

func (r *Runs) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Start cria a execução com status running
func (r *Runs) Start(ctx context.Context, mode string, leagues []string) (Run, error) {
	run := Run{
		UUID:      uuid.NewString(),
		Status:    RunRunning,
		Leagues:   leagues,
		StartedAt: r.now(),
		Mode:      mode,
	}
	const q = `
		INSERT INTO scraper_logs (run_uuid, status, leagues_scraped, started_at, scraper_mode)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	err := r.DB.QueryRowContext(ctx, r.DB.Rebind(q),
		run.UUID, run.Status, strings.Join(leagues, ","), run.StartedAt, run.Mode,
	).Scan(&run.ID)
	return run, err
}

// Finish grava contadores, status final e horário de término
func (r *Runs) Finish(ctx context.Context, run *Run) error {
	now := r.now()
	run.FinishedAt = &now
	const q = `
		UPDATE scraper_logs
		SET status = ?, matches_found = ?, matches_new = ?, matches_updated = ?,
		    leagues_scraped = ?, error_message = ?, finished_at = ?
		WHERE id = ?`
	var msg any
	if run.ErrorMessage != "" {
		msg = run.ErrorMessage
	}
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(q),
		run.Status, run.Found, run.New, run.Updated,
		strings.Join(run.Leagues, ","), msg, now, run.ID,
	)
	return err
}

const runColumns = `id, run_uuid, status, matches_found, matches_new, matches_updated,
	leagues_scraped, error_message, started_at, finished_at, scraper_mode`

func scanRun(sc scanner) (Run, error) {
	var (
		run                    Run
		id, leagues, msg, mode sql.NullString
	)
	if err := sc.Scan(&run.ID, &id, &run.Status, &run.Found, &run.New, &run.Updated,
		&leagues, &msg, &run.StartedAt, &run.FinishedAt, &mode); err != nil {
		return Run{}, err
	}
	run.UUID, run.ErrorMessage, run.Mode = id.String, msg.String, mode.String
	run.Leagues = []string{}
	if leagues.String != "" {
		run.Leagues = strings.Split(leagues.String, ",")
	}
	return run, nil
}

// Latest devolve a execução mais recente; nil quando não há nenhuma
func (r *Runs) Latest(ctx context.Context) (*Run, error) {
	run, err := scanRun(r.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM scraper_logs ORDER BY id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List devolve as últimas execuções, mais recentes primeiro
func (r *Runs) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.DB.QueryContext(ctx, r.DB.Rebind(`SELECT `+runColumns+` FROM scraper_logs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
