package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/charlieloganx23/apibet/internal/api/cache"
	"github.com/charlieloganx23/apibet/internal/api/ws"
	"github.com/charlieloganx23/apibet/internal/ingest"
	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/prediction"
	"github.com/charlieloganx23/apibet/internal/repository"
)

// MatchStore é o acesso às partidas usado pela API
type MatchStore interface {
	List(ctx context.Context, f repository.Filter) ([]match.Match, error)
	Get(ctx context.Context, id int64) (match.Match, error)
	SetResult(ctx context.Context, id int64, s match.Score) (match.Match, error)
	FindBySchedule(ctx context.Context, hour, minute string) (match.Match, error)
	Upcoming(ctx context.Context, limit int) ([]match.Match, error)
	Finished(ctx context.Context, limit int) ([]match.Match, error)
	Stats(ctx context.Context) (repository.Stats, error)
	AverageOdds(ctx context.Context) (repository.AverageOdds, error)
}

// RunStore lê scraper_logs
type RunStore interface {
	Latest(ctx context.Context) (*repository.Run, error)
	List(ctx context.Context, limit int) ([]repository.Run, error)
}

// Scheduler controla o loop de ingestão (ingest.Runner)
type Scheduler interface {
	Start(parent context.Context) bool
	Stop() bool
	Running() bool
	TriggerOnce(ctx context.Context) (ingest.SyncReport, error)
}

// API expõe os endpoints REST e o /ws do monitor de futebol virtual
type API struct {
	Matches  MatchStore
	Runs     RunStore
	Cache    *cache.Cache // nil = sem cache
	Hub      *ws.Hub
	Runner   Scheduler
	Tracker  *prediction.Tracker
	Notifier ingest.Notifier       // frames de resultado manual; nil = Hub
	Events   ingest.EventPublisher // nil = sem Kafka
	Log      *zap.Logger
	Version  string

	// BaseContext é o contexto do processo, usado pelo loop iniciado via /api/scraper/start
	BaseContext context.Context
}

// Router retorna o roteador com middlewares, CORS aberto e todas as rotas
func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if a.Tracker == nil {
		a.Tracker = prediction.NewTracker()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", a.root)
	if a.Hub != nil {
		r.Get("/ws", a.Hub.HandleWS)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/matches", a.listMatches)
		r.Get("/matches/{id}", a.getMatch)
		r.Post("/matches/{id}/result", a.setResult)
		r.Get("/stats", a.stats)
		r.Post("/predict", a.predict)

		r.Get("/scraper/status", a.scraperStatus)
		r.Post("/scraper/start", a.scraperStart)
		r.Post("/scraper/stop", a.scraperStop)
		r.Post("/scraper/run", a.scraperRun)
		r.Get("/logs", a.logs)

		r.Get("/analytics/overview", a.analyticsOverview)
		r.Get("/predictions/stats", a.predictionStats)
		r.Get("/recommendations", a.recommendations)
		r.Get("/export/csv", a.exportCSV)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail mapeia ErrNotFound para 404 e o resto para 500
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	a.Log.Error("request failed",
		zap.String("path", r.URL.Path), zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// intParam lê um inteiro da query com default e teto; inválido ou negativo é erro
func intParam(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + name)
	}
	if n > max {
		n = max
	}
	return n, nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func (a *API) baseContext() context.Context {
	if a.BaseContext != nil {
		return a.BaseContext
	}
	return context.Background()
}

func (a *API) notifier() ingest.Notifier {
	if a.Notifier != nil {
		return a.Notifier
	}
	if a.Hub != nil {
		return a.Hub
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }
