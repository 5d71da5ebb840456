package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apicache "github.com/charlieloganx23/apibet/internal/api/cache"
	"github.com/charlieloganx23/apibet/internal/api/httpapi"
	"github.com/charlieloganx23/apibet/internal/api/ws"
	"github.com/charlieloganx23/apibet/internal/ingest"
	"github.com/charlieloganx23/apibet/internal/prediction"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/internal/shared/metrics"
)

func runAPI(ctx context.Context, d *deps) error {
	log := d.log

	hub := ws.NewHub(nil, log.Named("ws"))
	d.metrics.wireHub(hub)

	mon := &ws.Monitor{
		Hub:       hub,
		Matches:   d.matches,
		Poll:      d.cfg.WSPollInterval,
		Heartbeat: d.cfg.WSHeartbeatPeriod,
		Log:       log.Named("monitor"),
	}

	// com Redis os frames passam pelo canal (outros processos também publicam);
	// sem Redis vão direto para o Monitor, que repassa ao Hub
	var notifier ingest.Notifier = mon
	if d.redis != nil {
		ws.StartRedisSubscriber(ctx, d.redis, d.cfg.RedisPubSubChannel, mon, log.Named("ws"))
		notifier = d.redisNotifier()
	}
	go mon.Run(ctx)

	tracker := prediction.NewTracker()
	if finished, err := d.matches.Finished(ctx, 0); err != nil {
		log.Warn("initial accuracy refresh failed", zap.Error(err))
	} else {
		tracker.Refresh(finished)
	}

	runner := d.runner(d.sync(notifier), tracker)
	if d.cfg.ScraperAutostart {
		runner.Start(ctx)
		log.Info("ingestion loop started", zap.Duration("interval", d.cfg.ScraperInterval))
	}
	defer runner.Stop()

	api := &httpapi.API{
		Matches:     d.matches,
		Runs:        d.runs,
		Cache:       apicache.New(d.redis),
		Hub:         hub,
		Runner:      runner,
		Tracker:     tracker,
		Notifier:    notifier,
		Events:      d.events(),
		Log:         log.Named("http"),
		Version:     version,
		BaseContext: ctx,
	}

	msrv := metrics.StartMetricsServer(d.cfg.MetricsPort, d.health)
	log.Info("metrics/health server starting", zap.String("port", d.cfg.MetricsPort))

	srv := &http.Server{
		Addr:              d.cfg.APIAddr(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = msrv.Shutdown(sctx)
	return srv.Shutdown(sctx)
}

func runScraper(ctx context.Context, d *deps) error {
	msrv := metrics.StartMetricsServer(d.cfg.MetricsPort, d.health)
	defer msrv.Close()

	runner := d.runner(d.sync(d.redisNotifier()), prediction.NewTracker())
	runner.Start(ctx)
	d.log.Info("ingestion loop started",
		zap.Duration("interval", d.cfg.ScraperInterval), zap.Strings("leagues", d.cfg.Leagues))

	<-ctx.Done()
	runner.Stop()
	return nil
}

func runOnce(ctx context.Context, d *deps) error {
	rep, err := d.sync(d.redisNotifier()).Odds.Run(ctx)
	if err != nil {
		return err
	}
	logReport(d.log, "odds", rep)
	return reportErr(rep)
}

func runResults(ctx context.Context, d *deps) error {
	rep, err := d.sync(d.redisNotifier()).Results.Run(ctx)
	if err != nil {
		return err
	}
	logReport(d.log, "results", rep)
	return reportErr(rep)
}

func runStatus(ctx context.Context, d *deps) error {
	rep, err := d.sync(nil).Status.Run(ctx)
	if err != nil {
		return err
	}
	d.log.Info("status sync",
		zap.Int("checked", rep.Checked), zap.Int("changed", rep.Changed), zap.Int("skipped", rep.Skipped),
		zap.Int("repaired", rep.Repaired), zap.Any("by_status", rep.ByStatus))
	return nil
}

func runSync(ctx context.Context, d *deps) error {
	rep, err := d.sync(d.redisNotifier()).Run(ctx)
	logReport(d.log, "odds", rep.Odds)
	logReport(d.log, "results", rep.Results)
	d.log.Info("sync cycle",
		zap.Int("status_changed_before", rep.StatusBefore.Changed),
		zap.Int("status_changed_after", rep.StatusAfter.Changed),
		zap.Duration("elapsed", rep.FinishedAt.Sub(rep.StartedAt)))
	return err
}

// schema já é aplicado em connect
func runInitDB(_ context.Context, d *deps) error {
	d.log.Info("schema ready", zap.String("dialect", string(d.db.Dialect)))
	return nil
}

func runStats(ctx context.Context, d *deps) error {
	st, err := d.matches.Stats(ctx)
	if err != nil {
		return err
	}
	d.log.Info("database stats",
		zap.Int64("total", st.Total), zap.Int64("finished", st.Finished), zap.Int64("scheduled", st.Scheduled),
		zap.Int64("live", st.Live), zap.Int64("expired", st.Expired))
	for _, l := range st.Leagues {
		d.log.Info("league stats", zap.String("league", l.League), zap.Int64("total", l.Total),
			zap.Int64("finished", l.Finished), zap.Int64("scheduled", l.Scheduled))
	}

	bad, err := d.matches.InvariantViolations(ctx)
	if err != nil {
		return err
	}
	if bad > 0 {
		d.log.Warn("rows with score/status mismatch, run the status mode", zap.Int64("rows", bad))
	}

	last, err := d.runs.Latest(ctx)
	if err != nil {
		return err
	}
	if last == nil {
		d.log.Info("no runs recorded")
		return nil
	}
	d.log.Info("last run",
		zap.String("uuid", last.UUID), zap.String("mode", last.Mode), zap.String("status", last.Status),
		zap.Int("found", last.Found), zap.Int("new", last.New), zap.Int("updated", last.Updated),
		zap.Time("started_at", last.StartedAt))
	return nil
}

func runPrune(ctx context.Context, d *deps) error {
	cutoff := time.Now().UTC().Add(-d.cfg.PruneRetention)
	n, err := d.matches.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	d.log.Info("pruned matches", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return nil
}

func runFreshness(ctx context.Context, d *deps) error {
	p := d.provider()
	var errs []error
	for _, league := range d.cfg.Leagues {
		body, err := p.LastUpdated(ctx, league)
		if err != nil {
			d.log.Warn("last-updated failed", zap.String("league", league), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		d.log.Info("last-updated", zap.String("league", league), zap.Any("body", body))
	}
	if len(errs) == len(d.cfg.Leagues) {
		return errors.Join(errs...)
	}
	return nil
}

// reportErr falha o processo só quando nenhuma liga foi processada
func reportErr(r ingest.Report) error {
	if r.Status != repository.RunError {
		return nil
	}
	return fmt.Errorf("run %s failed: %s", r.RunUUID, strings.Join(r.Errors, "; "))
}

func logReport(log *zap.Logger, name string, r ingest.Report) {
	log.Info(name+" pass",
		zap.String("run", r.RunUUID), zap.String("status", r.Status),
		zap.Int("found", r.Found), zap.Int("new", r.New), zap.Int("updated", r.Updated),
		zap.Int("unchanged", r.Unchanged), zap.Strings("errors", r.Errors))
}
