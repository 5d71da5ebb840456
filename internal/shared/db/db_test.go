package db

import (
	"context"
	"strings"
	"testing"
)

func TestParseURL(t *testing.T) {
	cases := []struct {
		url     string
		dialect Dialect
		prefix  string
		wantErr bool
	}{
		{url: "postgres://u:p@localhost:5432/bet?sslmode=disable", dialect: Postgres, prefix: "postgres://"},
		{url: "postgresql://localhost/bet", dialect: Postgres, prefix: "postgresql://"},
		{url: "sqlite://bet365_virtual.db", dialect: SQLite, prefix: "bet365_virtual.db?"},
		{url: "sqlite:///var/lib/apibet.db", dialect: SQLite, prefix: "/var/lib/apibet.db?"},
		{url: "./local.db", dialect: SQLite, prefix: "./local.db?"},
		{url: ":memory:", dialect: SQLite, prefix: ":memory:?"},
		{url: "mysql://localhost/bet", wantErr: true},
		{url: "", wantErr: true},
	}
	for _, tc := range cases {
		d, dsn, err := ParseURL(tc.url)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.url)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.url, err)
		}
		if d != tc.dialect || !strings.HasPrefix(dsn, tc.prefix) {
			t.Errorf("%q: got (%s, %s)", tc.url, d, dsn)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	if got := pg.Rebind("UPDATE m SET a = ?, b = ? WHERE id = ?"); got != "UPDATE m SET a = $1, b = $2 WHERE id = $3" {
		t.Fatalf("postgres rebind = %s", got)
	}
	lite := &DB{Dialect: SQLite}
	if got := lite.Rebind("SELECT ?"); got != "SELECT ?" {
		t.Fatalf("sqlite rebind = %s", got)
	}
}

func TestConnectSQLiteMemory(t *testing.T) {
	d, err := Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Close()
	if d.Dialect != SQLite {
		t.Fatalf("dialect = %s", d.Dialect)
	}
	var one int
	if err := d.QueryRow("SELECT 1").Scan(&one); err != nil || one != 1 {
		t.Fatalf("select 1: %v %d", err, one)
	}
}
