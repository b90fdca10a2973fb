package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"realitease/internal/episodes"
	"realitease/internal/logging"
	"realitease/internal/notifications"
	"realitease/internal/realitease"
	"realitease/internal/services"
	"realitease/internal/stage"
	"realitease/internal/testsupport"
	"realitease/internal/updateinfo"
	"realitease/internal/viablecast"
	"realitease/internal/workflow"
	"realitease/internal/worksheets"
)

type fakeHandler struct {
	name    string
	summary stage.Summary
	err     error
	ran     *[]string
}

func (f *fakeHandler) Name() string { return f.name }

func (f *fakeHandler) Run(context.Context) (stage.Summary, error) {
	*f.ran = append(*f.ran, f.name)
	return f.summary, f.err
}

func (f *fakeHandler) HealthCheck(context.Context) stage.Health {
	if f.err != nil {
		return stage.Unhealthy(f.name, f.err.Error())
	}
	return stage.Healthy(f.name)
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingNotifier) last(event notifications.Event) notifications.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i] == event {
			return r.payloads[i]
		}
	}
	return nil
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name          string
		from, to      string
		includeEnrich bool
		want          []string
	}{
		{"full run", "", "", true, workflow.Order},
		{"enrich disabled", "", "", false, []string{"showinfo", "castinfo", "updateinfo", "viablecast", "episodes", "realitease"}},
		{"tail", "viablecast", "", false, []string{"viablecast", "episodes", "realitease"}},
		{"single", "episodes", "episodes", false, []string{"episodes"}},
		{"enrich named explicitly", "enrich", "updateinfo", false, []string{"enrich", "updateinfo"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := workflow.Select(tc.from, tc.to, tc.includeEnrich)
			if err != nil {
				t.Fatalf("Select returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Select(%q, %q) = %v want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestSelectRejectsBadBounds(t *testing.T) {
	if _, err := workflow.Select("bogus", "", true); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := workflow.Select("realitease", "showinfo", true); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for reversed bounds, got %v", err)
	}
}

func TestRunnerStopsAtFirstStageError(t *testing.T) {
	var ran []string
	boom := errors.New("sheet unreachable")
	handlers := []stage.Handler{
		&fakeHandler{name: "showinfo", summary: stage.Summary{Processed: 3}, ran: &ran},
		&fakeHandler{name: "castinfo", err: boom, ran: &ran},
		&fakeHandler{name: "updateinfo", ran: &ran},
	}
	notifier := &recordingNotifier{}
	lockDir := t.TempDir()
	runner := &workflow.Runner{
		Logger:   logging.NewNop(),
		Notifier: notifier,
		LockPath: func(name string) string { return filepath.Join(lockDir, name+".lock") },
	}

	report, err := runner.Run(context.Background(), handlers)
	if !errors.Is(err, boom) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if !reflect.DeepEqual(ran, []string{"showinfo", "castinfo"}) {
		t.Fatalf("unexpected stages run %v", ran)
	}
	if report.FailedStage != "castinfo" || len(report.Summaries) != 2 || report.RunID == "" {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Total().Processed != 3 {
		t.Fatalf("unexpected total %+v", report.Total())
	}
	payload := notifier.last(notifications.EventRunCompleted)
	if payload == nil || payload["failed_stage"] != "castinfo" || payload["stages"] != 2 {
		t.Fatalf("unexpected run payload %#v", payload)
	}
	if _, err := os.Stat(filepath.Join(lockDir, "showinfo.lock")); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
}

func TestRunnerPreflightFailureRunsNothing(t *testing.T) {
	var ran []string
	runner := &workflow.Runner{
		Logger:    logging.NewNop(),
		Preflight: func(context.Context) error { return errors.New("state dir missing") },
	}
	report, err := runner.Run(context.Background(), []stage.Handler{&fakeHandler{name: "showinfo", ran: &ran}})
	if err == nil || report.FailedStage != "preflight" || len(ran) != 0 {
		t.Fatalf("expected preflight abort, got err=%v report=%+v ran=%v", err, report, ran)
	}
}

func TestPreflightHookReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/3/configuration" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTMDBBaseURL(srv.URL))
	hook := workflow.Preflight(cfg, logging.NewNop())
	err := hook(context.Background())
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "State directory") {
		t.Fatalf("expected missing state dir failure, got %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := hook(context.Background()); err != nil {
		t.Fatalf("expected preflight to pass, got %v", err)
	}
}

func TestHealthFillsNames(t *testing.T) {
	var ran []string
	health := workflow.Health(context.Background(), []stage.Handler{
		&fakeHandler{name: "showinfo", ran: &ran},
		&fakeHandler{name: "castinfo", err: errors.New("no key"), ran: &ran},
	})
	if len(health) != 2 || !health[0].Ready || health[1].Ready || health[1].Name != "castinfo" {
		t.Fatalf("unexpected health %+v", health)
	}
	if workflow.Ready(health) {
		t.Fatal("expected not ready")
	}
}

func castRow(id, name, imdb, showID, showName, showIMDb, episodes string) map[string]string {
	return map[string]string{
		worksheets.CastID:            id,
		worksheets.CastName:          name,
		worksheets.CastIMDbID:        imdb,
		worksheets.CastShowID:        showID,
		worksheets.CastShowName:      showName,
		worksheets.CastShowIMDbID:    showIMDb,
		worksheets.CastTotalEpisodes: episodes,
		worksheets.CastGender:        "Female",
	}
}

func TestDependenciesRunAggregationStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	deps, err := workflow.Open(ctx, cfg, slog.New(logging.NoopHandler{}))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	if deps.TVDB != nil || deps.Wikidata != nil {
		t.Fatal("optional clients should be nil without configuration")
	}

	testsupport.Seed(t, deps.Sheets, worksheets.CastInfoLayout(false),
		castRow("1", "Lisa Vanderpump", "nm1", "100", "Vanderpump Rules", "tt2", "120"),
		castRow("1", "Lisa Vanderpump", "nm1", "200", "The Real Housewives of Beverly Hills", "tt1", "150"),
		castRow("2", "Guest Star", "nm2", "100", "Vanderpump Rules", "tt2", "3"),
	)

	names := []string{updateinfo.Name, viablecast.Name, realitease.Name}
	handlers, err := deps.BuildAll(names, workflow.Overrides{})
	if err != nil {
		t.Fatalf("BuildAll returned error: %v", err)
	}
	runner := &workflow.Runner{Logger: logging.NewNop(), LockPath: deps.LockPath}
	report, err := runner.Run(ctx, handlers)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Summaries) != 3 || report.FailedStage != "" {
		t.Fatalf("unexpected report %+v", report)
	}

	if got := len(testsupport.Rows(t, deps.Sheets, worksheets.UpdateInfo)); got != 2 {
		t.Fatalf("expected 2 UpdateInfo rows, got %d", got)
	}
	if got := len(testsupport.Rows(t, deps.Sheets, worksheets.ViableCast)); got != 2 {
		t.Fatalf("expected 2 ViableCast rows, got %d", got)
	}
	final := testsupport.Rows(t, deps.Sheets, worksheets.RealiteaseInfo)
	if len(final) != 1 || final[0].Get(worksheets.FinalCastIMDbID) != "nm1" || final[0].Get(worksheets.FinalShowCount) != "2" {
		t.Fatalf("unexpected RealiteaseInfo rows %#v", final)
	}
	if _, err := os.Stat(cfg.LockPath(viablecast.Name)); err != nil {
		t.Fatalf("expected stage lock file: %v", err)
	}
	if deps.LockPath(episodes.Name) != "" {
		t.Fatal("extractor must not take a stage lock")
	}
}

func TestBuildAllCoversEveryStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	deps, err := workflow.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	handlers, err := deps.BuildAll(workflow.Order, workflow.Overrides{Strategy: "api", Workers: 2})
	if err != nil {
		t.Fatalf("BuildAll returned error: %v", err)
	}
	for i, h := range handlers {
		if h.Name() != workflow.Order[i] {
			t.Fatalf("handler %d = %s want %s", i, h.Name(), workflow.Order[i])
		}
	}
	if _, err := deps.Build("episodes", workflow.Overrides{Strategy: "browser"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown strategy, got %v", err)
	}
}
