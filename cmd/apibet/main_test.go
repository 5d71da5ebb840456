package main

import (
	"strings"
	"testing"
)

func TestModeTable(t *testing.T) {
	for _, name := range []string{"api", "scraper", "once", "results", "status", "sync", "init-db", "stats", "prune", "freshness"} {
		m, ok := modes[name]
		if !ok || m.run == nil || m.help == "" {
			t.Errorf("mode %q not wired", name)
		}
	}
	if len(modes) != 10 {
		t.Errorf("modes = %d", len(modes))
	}
	// prune apaga pela data de captura, com ou sem placar
	if h := modes["prune"].help; strings.Contains(h, "sem resultado") && !strings.Contains(h, "com ou sem") {
		t.Errorf("prune help = %q", h)
	}
}
