package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/shared/db"
)

// Migrate cria as tabelas e índices se ainda não existirem
func Migrate(ctx context.Context, d *db.DB) error {
	for _, stmt := range schema(d.Dialect) {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\n%s", err, stmt)
		}
	}
	return nil
}

func schema(dialect db.Dialect) []string {
	pk, float, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL", "TIMESTAMP"
	if dialect == db.Postgres {
		pk, float, ts = "BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION", "TIMESTAMPTZ"
	}

	var odds strings.Builder
	for _, col := range match.MarketColumns() {
		fmt.Fprintf(&odds, "\t%s %s,\n", col, float)
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS scraper_logs (
	id ` + pk + `,
	run_uuid TEXT,
	status TEXT NOT NULL,
	matches_found INTEGER NOT NULL DEFAULT 0,
	matches_new INTEGER NOT NULL DEFAULT 0,
	matches_updated INTEGER NOT NULL DEFAULT 0,
	leagues_scraped TEXT,
	error_message TEXT,
	started_at ` + ts + ` NOT NULL,
	finished_at ` + ts + `,
	scraper_mode TEXT
)`,
		`CREATE TABLE IF NOT EXISTS matches (
	id ` + pk + `,
	external_id TEXT NOT NULL UNIQUE,
	league TEXT NOT NULL,
	team_home TEXT NOT NULL,
	team_away TEXT NOT NULL,
	hour TEXT,
	minute TEXT,
	scheduled_time TEXT,
	match_date ` + ts + `,
	goals_home INTEGER,
	goals_away INTEGER,
	total_goals INTEGER,
	result TEXT,
` + odds.String() + `	odds_json TEXT,
	status TEXT NOT NULL DEFAULT 'scheduled',
	scraped_at ` + ts + ` NOT NULL,
	updated_at ` + ts + ` NOT NULL,
	scraper_log_id BIGINT REFERENCES scraper_logs(id) ON DELETE SET NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_league ON matches (league)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches (status)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_schedule ON matches (hour, minute)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_scraped_at ON matches (scraped_at)`,
	}
}
