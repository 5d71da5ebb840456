// Command apibet coleta odds e resultados de futebol virtual, grava em banco
// e expõe API REST/WebSocket. Cada modo roda uma parte do fluxo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/shared/config"
	"github.com/charlieloganx23/apibet/internal/shared/logger"
)

var version = "dev"

type modeFunc func(ctx context.Context, d *deps) error

var modes = map[string]struct {
	run  modeFunc
	help string
}{
	"api":       {runAPI, "servidor REST + /ws (loop de ingestão com SCRAPER_AUTOSTART=true)"},
	"scraper":   {runScraper, "loop contínuo de ingestão até SIGINT/SIGTERM"},
	"once":      {runOnce, "uma passada de odds em todas as ligas"},
	"results":   {runResults, "uma passada de resultados"},
	"status":    {runStatus, "recalcula o status das partidas"},
	"sync":      {runSync, "ciclo completo uma vez (status, odds, resultados, status)"},
	"init-db":   {runInitDB, "cria as tabelas"},
	"stats":     {runStats, "mostra estatísticas do banco"},
	"prune":     {runPrune, "remove partidas capturadas antes da retenção (com ou sem resultado)"},
	"freshness": {runFreshness, "consulta /last-updated de cada liga"},
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "uso: %s [flags] <modo>\n\nmodos:\n", os.Args[0])
	names := make([]string, 0, len(modes))
	for n := range modes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(out, "  %-10s %s\n", n, modes[n].help)
	}
	fmt.Fprintln(out, "\nflags:")
	flag.PrintDefaults()
}

func main() {
	configFile := flag.String("config", "", "arquivo YAML de configuração (sobrepõe CONFIG_FILE)")
	logLevel := flag.String("log-level", "", "nível de log (sobrepõe LOG_LEVEL)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	mode, ok := modes[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(flag.CommandLine.Output(), "modo desconhecido: %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	if *configFile != "" {
		_ = os.Setenv("CONFIG_FILE", *configFile)
	}

	// carrega config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting", zap.String("mode", flag.Arg(0)), zap.String("version", version), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d := connect(ctx, cfg, log)
	defer d.Close()

	if err := mode.run(ctx, d); err != nil {
		log.Error("mode failed", zap.String("mode", flag.Arg(0)), zap.Error(err))
		d.Close()
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("done", zap.String("mode", flag.Arg(0)))
}
