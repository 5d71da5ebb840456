package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charlieloganx23/apibet/internal/lifecycle"
	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/provider"
	"github.com/charlieloganx23/apibet/internal/repository"
	"github.com/charlieloganx23/apibet/internal/shared/db"
	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

type fakeProvider struct {
	next    map[string]*provider.Response
	results map[string]*provider.Response
	fail    map[string]bool
}

func (p *fakeProvider) NextMatches(_ context.Context, league string) (*provider.Response, error) {
	if p.fail[league] {
		return nil, provider.ErrHTTPStatus
	}
	if r, ok := p.next[league]; ok {
		return r, nil
	}
	return &provider.Response{Status: true}, nil
}

func (p *fakeProvider) Matches(_ context.Context, league string) (*provider.Response, error) {
	if p.fail[league] {
		return nil, provider.ErrTransport
	}
	if r, ok := p.results[league]; ok {
		return r, nil
	}
	return &provider.Response{Status: true}, nil
}

type recorder struct {
	mu      sync.Mutex
	frames  []events.Frame
	matches []events.MatchUpdate
	results []events.ResultUpdate
}

func (r *recorder) Notify(_ context.Context, f events.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) PublishMatch(_ context.Context, e events.MatchUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, e)
	return nil
}

func (r *recorder) PublishResult(_ context.Context, e events.ResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, e)
	return nil
}

type stores struct {
	db      *db.DB
	matches *repository.Matches
	runs    *repository.Runs
}

func newStores(t *testing.T) stores {
	t.Helper()
	d, err := db.Connect(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := repository.Migrate(context.Background(), d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return stores{db: d, matches: repository.NewMatches(d), runs: repository.NewRuns(d)}
}

func record(id, hora, minuto, home string) provider.Record {
	odds, _ := json.Marshal(map[string]string{
		"odd_resultado_final_casa":   home,
		"odd_resultado_final_empate": "3.40",
		"odd_resultado_final_fora":   "4.20",
		"odd_over_2.5":               "-",
	})
	return provider.Record{
		ID: provider.Value(id), TimeA: "Espanha", TimeB: "Itália",
		Hora: provider.Value(hora), Minuto: provider.Value(minuto), Odds: odds,
	}
}

var siteNow = time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)

func fixedClock() lifecycle.Clock {
	return lifecycle.Clock{Now: func() time.Time { return siteNow }}
}

func TestOddsIngestUpdatesInPlaceAndPartial(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	rec := &recorder{}
	prov := &fakeProvider{
		next: map[string]*provider.Response{"euro": {Status: true, Matchs: []provider.Record{
			record("X1", "21", "5", "1.80"),
			record("", "21", "8", "2.00"),
		}}},
		fail: map[string]bool{"copa": true},
	}
	var failedStages []string
	ing := &OddsIngester{
		Provider: prov, Matches: s.matches, Runs: s.runs,
		Leagues: []string{"euro", "copa"}, Clock: fixedClock(),
		Notifier: rec, Events: rec,
		OnError: func(league, stage string) { failedStages = append(failedStages, league+"/"+stage) },
	}

	rep, err := ing.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != repository.RunPartial || rep.Found != 1 || rep.New != 1 || len(rep.Errors) != 1 {
		t.Fatalf("first report = %+v", rep)
	}
	if len(failedStages) != 1 || failedStages[0] != "copa/fetch" {
		t.Fatalf("failed stages = %v", failedStages)
	}

	prov.next["euro"].Matchs[0] = record("X1", "21", "5", "1.65")
	rep, err = ing.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.New != 0 || rep.Updated != 1 {
		t.Fatalf("second report = %+v", rep)
	}

	if n, _ := s.matches.Count(ctx); n != 1 {
		t.Fatalf("rows = %d", n)
	}
	m, err := s.matches.FindBySchedule(ctx, "21", "05")
	if err != nil {
		t.Fatal(err)
	}
	if *m.Odds.Home != 1.65 || m.Odds.Over25 != nil || m.ScheduledTime != "21:05" || m.MatchDate == nil {
		t.Fatalf("row = %+v", m)
	}

	if len(rec.frames) != 1 || rec.frames[0].Type != events.FrameNewMatches || rec.frames[0].Count != 1 {
		t.Fatalf("frames = %+v", rec.frames)
	}
	if len(rec.matches) != 2 || !rec.matches[0].IsNew || rec.matches[1].IsNew || rec.matches[1].Odds.Home != 1.65 {
		t.Fatalf("events = %+v", rec.matches)
	}

	last, err := s.runs.Latest(ctx)
	if err != nil || last == nil || last.Status != repository.RunPartial || last.ErrorMessage == "" {
		t.Fatalf("latest run = %+v err = %v", last, err)
	}
}

func TestOddsIngestAllLeaguesFail(t *testing.T) {
	s := newStores(t)
	ing := &OddsIngester{
		Provider: &fakeProvider{fail: map[string]bool{"euro": true, "copa": true}},
		Matches:  s.matches, Runs: s.runs, Leagues: []string{"euro", "copa"}, Clock: fixedClock(),
	}
	rep, err := ing.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != repository.RunError || len(rep.Errors) != 2 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestResultsCollector(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	rec := &recorder{}
	prov := &fakeProvider{
		next: map[string]*provider.Response{"euro": {Status: true, Matchs: []provider.Record{
			record("X1", "20", "00", "1.80"),
			record("X2", "20", "03", "2.10"),
		}}},
		results: map[string]*provider.Response{"euro": {Status: true, Matchs: []provider.Record{
			{ID: "X1", ResultadoFt: "2-1"},
			{ID: "X2", ResultadoFt: "abc"},
			{ID: "X9", Resultado: "0-0"},
		}}},
	}
	ing := &OddsIngester{Provider: prov, Matches: s.matches, Runs: s.runs, Leagues: []string{"euro"}, Clock: fixedClock()}
	if _, err := ing.Run(ctx); err != nil {
		t.Fatal(err)
	}

	col := &ResultsCollector{Provider: prov, Matches: s.matches, Runs: s.runs, Leagues: []string{"euro"}, Notifier: rec, Events: rec}
	rep, err := col.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != repository.RunSuccess || rep.Found != 2 || rep.Updated != 1 {
		t.Fatalf("report = %+v", rep)
	}

	x1, _ := s.matches.FindBySchedule(ctx, "20", "00")
	if x1.Status != match.StatusFinished || *x1.GoalsHome != 2 || *x1.GoalsAway != 1 ||
		x1.TotalGoals == nil || *x1.TotalGoals != 3 || *x1.Result != match.OutcomeHome {
		t.Fatalf("X1 = %+v", x1)
	}
	x2, _ := s.matches.FindBySchedule(ctx, "20", "03")
	if x2.HasOutcome() || x2.Status != match.StatusScheduled {
		t.Fatalf("X2 changed: %+v", x2)
	}

	if len(rec.frames) != 1 || rec.frames[0].Type != events.FrameResultsUpdated || rec.frames[0].Updated != 1 {
		t.Fatalf("frames = %+v", rec.frames)
	}
	if len(rec.results) != 1 || rec.results[0].Result != "home" || rec.results[0].TotalGoals != 3 || rec.results[0].Source != "provider" {
		t.Fatalf("results = %+v", rec.results)
	}

	again, _ := col.Run(ctx)
	if again.Updated != 0 || again.Unchanged != 1 {
		t.Fatalf("second run = %+v", again)
	}
}

func TestStatusSyncer(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	rows := []match.Match{
		{ExternalID: "A", League: "euro", ScheduledTime: "23:30"},
		{ExternalID: "B", League: "euro", ScheduledTime: "21:30"},
		{ExternalID: "C", League: "euro", ScheduledTime: "20:00"},
		{ExternalID: "D", League: "euro", ScheduledTime: "20:00"},
		{ExternalID: "E", League: "euro", ScheduledTime: "00.10"},
		{ExternalID: "F", League: "euro"},
		{ExternalID: "G", League: "euro", ScheduledTime: "23:50"},
	}
	if _, err := s.matches.UpsertOdds(ctx, rows, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.matches.ApplyResults(ctx, []repository.ResultInput{{ExternalID: "D", Score: match.Score{Home: 1, Away: 1}}}); err != nil {
		t.Fatal(err)
	}
	// linha inconsistente: placar gravado mas status regrediu
	if _, err := s.db.ExecContext(ctx, `UPDATE matches SET status = 'live' WHERE external_id = 'D'`); err != nil {
		t.Fatal(err)
	}
	// gols sem total/resultado e status ainda scheduled
	if _, err := s.db.ExecContext(ctx, `UPDATE matches SET goals_home = 2, goals_away = 1 WHERE external_id = 'G'`); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.matches.InvariantViolations(ctx); v != 2 {
		t.Fatalf("violations before = %d", v)
	}

	syncer := &StatusSyncer{Matches: s.matches, Clock: fixedClock(), Thresholds: lifecycle.DefaultThresholds()}
	rep, err := syncer.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Checked != 7 || rep.Skipped != 1 || rep.Repaired != 2 {
		t.Fatalf("report = %+v", rep)
	}

	want := map[string]match.Status{
		"A": match.StatusScheduled,
		"B": match.StatusLive,
		"C": match.StatusExpired,
		"D": match.StatusFinished,
		"E": match.StatusScheduled,
		"F": match.StatusScheduled,
		"G": match.StatusFinished,
	}
	all, _ := s.matches.List(ctx, repository.Filter{})
	for _, m := range all {
		if m.Status != want[m.ExternalID] {
			t.Errorf("%s status = %s, want %s", m.ExternalID, m.Status, want[m.ExternalID])
		}
		if !m.Consistent() {
			t.Errorf("%s inconsistent: %+v", m.ExternalID, m)
		}
		if m.ExternalID == "G" && (m.TotalGoals == nil || *m.TotalGoals != 3 || m.Result == nil || *m.Result != match.OutcomeHome) {
			t.Errorf("G outcome not rebuilt: %+v", m)
		}
	}
	if v, _ := s.matches.InvariantViolations(ctx); v != 0 {
		t.Fatalf("violations after = %d", v)
	}

	// linhas reparadas saem da fila de pendentes
	again, err := syncer.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Repaired != 0 || again.Checked != 5 {
		t.Fatalf("second run = %+v", again)
	}
}

func TestSyncRunsAllSteps(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	prov := &fakeProvider{
		next:    map[string]*provider.Response{"euro": {Status: true, Matchs: []provider.Record{record("X1", "20", "00", "1.80")}}},
		results: map[string]*provider.Response{"euro": {Status: true, Matchs: []provider.Record{{ID: "X1", ResultadoFt: "0-2"}}}},
	}
	sy := &Sync{
		Status:  &StatusSyncer{Matches: s.matches, Clock: fixedClock()},
		Odds:    &OddsIngester{Provider: prov, Matches: s.matches, Runs: s.runs, Leagues: []string{"euro"}, Clock: fixedClock()},
		Results: &ResultsCollector{Provider: prov, Matches: s.matches, Runs: s.runs, Leagues: []string{"euro"}},
	}
	rep, err := sy.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Odds.New != 1 || rep.Results.Updated != 1 || rep.StatusAfter.ByStatus[match.StatusFinished] != 0 {
		t.Fatalf("report = %+v", rep)
	}
	m, _ := s.matches.FindBySchedule(ctx, "20", "00")
	if m.Status != match.StatusFinished || *m.Result != match.OutcomeAway {
		t.Fatalf("row = %+v", m)
	}
	runs, _ := s.runs.List(ctx, 10)
	if len(runs) != 2 {
		t.Fatalf("runs = %d", len(runs))
	}
}

type countingCycle struct{ n atomic.Int32 }

func (c *countingCycle) Run(context.Context) (SyncReport, error) {
	c.n.Add(1)
	return SyncReport{}, nil
}

func TestRunnerStartStop(t *testing.T) {
	cyc := &countingCycle{}
	r := &Runner{Cycle: cyc, Interval: time.Hour}

	if r.Running() || r.Stop() {
		t.Fatal("runner should start stopped")
	}
	if !r.Start(context.Background()) {
		t.Fatal("start failed")
	}
	if r.Start(context.Background()) {
		t.Fatal("second start should report already running")
	}
	if !r.Running() {
		t.Fatal("not running")
	}

	if _, err := r.TriggerOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !r.Stop() {
		t.Fatal("stop failed")
	}
	if r.Running() || r.Stop() {
		t.Fatal("runner still running")
	}
	if n := cyc.n.Load(); n != 2 {
		t.Fatalf("cycles = %d, want 2 (initial + trigger)", n)
	}
}
