package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifica o banco por trás do *sql.DB
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB embute *sql.DB e guarda o dialeto para placeholders e DDL
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ParseURL resolve DATABASE_URL em (dialeto, dsn do driver).
// postgres:// e postgresql:// vão para lib/pq; sqlite://caminho, file: ou um caminho puro vão para SQLite.
func ParseURL(url string) (Dialect, string, error) {
	switch {
	case url == "":
		return "", "", fmt.Errorf("empty database url")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Postgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return SQLite, sqliteDSN(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "sqlite:"):
		return SQLite, sqliteDSN(strings.TrimPrefix(url, "sqlite:")), nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme: %s", url)
	default:
		return SQLite, sqliteDSN(url), nil
	}
}

// sqliteDSN acrescenta busy timeout e formato de tempo legível pelo driver
func sqliteDSN(path string) string {
	// sqlite:///abs/path chega aqui como /abs/path
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
}

// Connect abre a conexão conforme o dialeto e valida com ping
func Connect(ctx context.Context, url string) (*DB, error) {
	dialect, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		// uma única conexão: escrita serializada e :memory: compartilhado
		db.SetMaxOpenConns(1)
	case Postgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Rebind troca placeholders "?" por "$n" no Postgres; no SQLite devolve a query intacta
func (d *DB) Rebind(q string) string {
	if d.Dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
