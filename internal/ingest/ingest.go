// Package ingest reúne os jobs que alimentam o banco: odds, resultados e sincronização de status.
package ingest

import (
	"context"

	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/provider"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// Provider é o subconjunto do cliente do provedor usado pela ingestão
type Provider interface {
	NextMatches(ctx context.Context, league string) (*provider.Response, error)
	Matches(ctx context.Context, league string) (*provider.Response, error)
}

// MatchStore é a persistência de partidas usada pelos jobs
type MatchStore interface {
	UpsertOdds(ctx context.Context, ms []match.Match, runID *int64) (repository.UpsertResult, error)
	ApplyResults(ctx context.Context, in []repository.ResultInput) (repository.ApplyOutcome, error)
	PendingStatus(ctx context.Context) ([]match.Match, error)
	UpdateStatuses(ctx context.Context, changes map[int64]match.Status) (int, error)
	RepairOutcome(ctx context.Context, scores map[int64]match.Score) (int, error)
}

// RunStore registra as execuções em scraper_logs
type RunStore interface {
	Start(ctx context.Context, mode string, leagues []string) (repository.Run, error)
	Finish(ctx context.Context, run *repository.Run) error
}

// Notifier entrega frames aos clientes WebSocket (direto no Hub ou via Redis)
type Notifier interface {
	Notify(ctx context.Context, f events.Frame) error
}

// EventPublisher publica os eventos de partida e resultado (Kafka)
type EventPublisher interface {
	PublishMatch(ctx context.Context, e events.MatchUpdate) error
	PublishResult(ctx context.Context, e events.ResultUpdate) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, events.Frame) error { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishMatch(context.Context, events.MatchUpdate) error   { return nil }
func (nopPublisher) PublishResult(context.Context, events.ResultUpdate) error { return nil }
