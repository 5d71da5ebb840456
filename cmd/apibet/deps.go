package main

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/ingest"
	"github.com/charlieloganx23/apibet/internal/ingest/publisher"
	"github.com/charlieloganx23/apibet/internal/lifecycle"
	"github.com/charlieloganx23/apibet/internal/prediction"
	"github.com/charlieloganx23/apibet/internal/provider"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/internal/shared/cache"
	"github.com/charlieloganx23/apibet/internal/shared/config"
	"github.com/charlieloganx23/apibet/internal/shared/db"
)

// deps reúne as conexões e componentes compartilhados pelos modos
type deps struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *appMetrics

	db      *db.DB
	redis   *redis.Client             // nil = desabilitado
	kafka   *publisher.KafkaPublisher // nil = desabilitado
	matches *repository.Matches
	runs    *repository.Runs

	closers []io.Closer
}

// connect abre o banco (fatal se falhar), aplica o schema e tenta Redis/Kafka
func connect(ctx context.Context, cfg config.Config, log *zap.Logger) *deps {
	d := &deps{cfg: cfg, log: log, metrics: newMetrics()}

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	d.db = conn
	d.closers = append(d.closers, conn)
	log.Info("database connected", zap.String("dialect", string(conn.Dialect)))

	if err := repository.Migrate(ctx, conn); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}
	d.matches = repository.NewMatches(conn)
	d.runs = repository.NewRuns(conn)

	rc, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	switch {
	case err != nil:
		log.Warn("redis unavailable, cache and pub/sub disabled", zap.Error(err))
	case rc != nil:
		d.redis = rc
		d.closers = append(d.closers, rc)
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp, err := publisher.NewKafkaPublisher(ctx, brokers, cfg.TopicMatchUpdates, cfg.TopicMatchResults, cfg.Env, log)
		if err != nil {
			log.Warn("kafka unavailable, events disabled", zap.Error(err))
		} else {
			d.kafka = kp
			d.closers = append(d.closers, kp)
			log.Info("kafka publisher ready",
				zap.String("matches_topic", cfg.TopicMatchUpdates), zap.String("results_topic", cfg.TopicMatchResults))
		}
	}
	return d
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			d.log.Warn("close failed", zap.Error(err))
		}
	}
}

func (d *deps) health(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *deps) provider() *provider.Client {
	c := provider.New(provider.Options{
		BaseURL:   d.cfg.RapidAPIBaseURL,
		APIKey:    d.cfg.RapidAPIKey,
		APIHost:   d.cfg.RapidAPIHost,
		Bookmaker: d.cfg.ProviderBookmaker,
		SportID:   d.cfg.ProviderSportID,
		Timeout:   d.cfg.ProviderTimeout,
	}, d.log)
	d.metrics.wireProvider(c)
	return c
}

func (d *deps) clock() lifecycle.Clock {
	return lifecycle.Clock{Offset: d.cfg.SiteTimeOffset}
}

func (d *deps) thresholds() lifecycle.Thresholds {
	th := lifecycle.Thresholds{
		ScheduledAfter: d.cfg.StatusScheduledAfter,
		FinishedAfter:  d.cfg.StatusFinishedAfter,
		Rollover:       d.cfg.StatusRollover,
	}
	if err := th.Validate(); err != nil {
		d.log.Warn("invalid status thresholds, using defaults", zap.Error(err))
		return lifecycle.DefaultThresholds()
	}
	return th
}

// events devolve o publisher Kafka ou nil
func (d *deps) events() ingest.EventPublisher {
	if d.kafka == nil {
		return nil
	}
	return d.kafka
}

// redisNotifier devolve o notifier de pub/sub ou nil quando Redis está desligado
func (d *deps) redisNotifier() ingest.Notifier {
	if d.redis == nil {
		return nil
	}
	return ingest.NewRedisNotifier(d.redis, d.cfg.RedisPubSubChannel)
}

// sync monta o ciclo completo com o notifier informado
func (d *deps) sync(n ingest.Notifier) *ingest.Sync {
	p := d.provider()
	ev := d.events()
	status := &ingest.StatusSyncer{
		Matches:    d.matches,
		Clock:      d.clock(),
		Thresholds: d.thresholds(),
		Log:        d.log.Named("status"),
	}
	odds := &ingest.OddsIngester{
		Provider:   p,
		Matches:    d.matches,
		Runs:       d.runs,
		Leagues:    d.cfg.Leagues,
		Clock:      d.clock(),
		Thresholds: d.thresholds(),
		Notifier:   n,
		Events:     ev,
		Log:        d.log.Named("odds"),
	}
	results := &ingest.ResultsCollector{
		Provider: p,
		Matches:  d.matches,
		Runs:     d.runs,
		Leagues:  d.cfg.Leagues,
		Notifier: n,
		Events:   ev,
		Log:      d.log.Named("results"),
	}
	d.metrics.wireIngest(odds, results, status)
	return &ingest.Sync{Status: status, Odds: odds, Results: results, Log: d.log.Named("sync")}
}

func (d *deps) runner(cycle ingest.Cycle, tracker *prediction.Tracker) *ingest.Runner {
	r := &ingest.Runner{
		Cycle:    cycle,
		Interval: d.cfg.ScraperInterval,
		Tracker:  tracker,
		History:  d.matches,
		Log:      d.log.Named("runner"),
	}
	d.metrics.wireRunner(r)
	return r
}
