package upload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yildizm/DenseView/internal/chart"
	"github.com/yildizm/DenseView/internal/logger"
	"github.com/yildizm/DenseView/internal/predict"
	"github.com/yildizm/DenseView/internal/selector"
	"github.com/yildizm/DenseView/internal/store"
)

type fixture struct {
	ctrl  *Controller
	store *store.Store
	logs  *observer.ObservedLogs
	hits  *int64
}

// newFixture starts a predict server backed by handler and wires a controller to it
func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := predict.New(predict.Config{Endpoint: server.URL, MinClasses: 2, MaxClasses: 16}, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return newFixtureWithClient(t, client, &hits)
}

func newFixtureWithClient(t *testing.T, client Predictor, hits *int64) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	st := store.New()
	return &fixture{
		ctrl:  New(client, st, logger.NewFromCore("upload", nil, core)),
		store: st,
		logs:  logs,
		hits:  hits,
	}
}

func respond(body string, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func imageFile(name string) *selector.File {
	return &selector.File{Name: name, MIMEType: "image/png", Data: []byte("png:" + name)}
}

func (f *fixture) errorEntries(kind predict.ErrorKind) int {
	return f.logs.FilterLevelExact(zapcore.ErrorLevel).FilterField(zap.String("kind", string(kind))).Len()
}

func TestSubmitWithoutFileIsNoop(t *testing.T) {
	f := newFixture(t, respond(`{"prediction": [[0.2, 0.8]]}`, http.StatusOK))

	outcome, err := f.ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if outcome != (store.Outcome{}) {
		t.Errorf("Expected zero outcome, got %+v", outcome)
	}
	if n := atomic.LoadInt64(f.hits); n != 0 {
		t.Errorf("Expected zero requests, got %d", n)
	}
	if f.store.Get() != nil {
		t.Error("Store must stay empty")
	}
	if f.store.Outcome().State != store.Idle {
		t.Errorf("Expected idle state, got %s", f.store.Outcome().State)
	}
	if f.logs.Len() != 0 {
		t.Errorf("Expected no log entries, got %d", f.logs.Len())
	}
}

func TestSubmitSuccess(t *testing.T) {
	f := newFixture(t, respond(`{"prediction": [[0.2, 0.8]]}`, http.StatusOK))
	f.ctrl.SelectFile(imageFile("scan.png"))

	outcome, err := f.ctrl.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.State != store.Succeeded || outcome.Seq != 1 {
		t.Errorf("Unexpected outcome %+v", outcome)
	}
	if _, err := uuid.Parse(outcome.RequestID); err != nil {
		t.Errorf("Expected uuid request id, got %q", outcome.RequestID)
	}

	series, err := chart.Series(f.store.Get())
	if err != nil {
		t.Fatalf("Series failed: %v", err)
	}
	want := []chart.Bar{{Label: "Class 1", Score: 0.2}, {Label: "Class 2", Score: 0.8}}
	if len(series) != len(want) {
		t.Fatalf("Expected %d bars, got %d", len(want), len(series))
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("bar %d = %+v, want %+v", i, series[i], want[i])
		}
	}
	if f.store.Outcome() != outcome {
		t.Errorf("Stored outcome %+v differs from returned %+v", f.store.Outcome(), outcome)
	}
}

func TestSubmitFailureKeepsPrediction(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    predict.ErrorKind
	}{
		{"server error", respond("internal error", http.StatusInternalServerError), predict.KindServer},
		{"not found", respond(`{"detail": "Not Found"}`, http.StatusNotFound), predict.KindServer},
		{"invalid json", respond("<html>gateway</html>", http.StatusOK), predict.KindDecode},
		{"missing prediction", respond(`{"label": "normal"}`, http.StatusOK), predict.KindDecode},
		{"single column", respond(`{"prediction": [[0.7]]}`, http.StatusOK), predict.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.handler)
			previous := predict.Matrix{{0.6, 0.4}}
			f.store.Set(previous)
			f.ctrl.SelectFile(imageFile("scan.png"))

			outcome, err := f.ctrl.Submit(context.Background())
			if err == nil {
				t.Fatal("Expected submit error")
			}
			if predict.KindOf(err) != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, predict.KindOf(err))
			}
			if outcome.State != store.Failed || outcome.Kind != tt.kind || outcome.Message == "" {
				t.Errorf("Unexpected outcome %+v", outcome)
			}

			got := f.store.Get()
			if len(got) != 1 || got[0][0] != 0.6 || got[0][1] != 0.4 {
				t.Errorf("Prediction changed on failure: %v", got)
			}
			if n := f.logs.Len(); n != 1 {
				t.Errorf("Expected exactly one log entry, got %d", n)
			}
			if n := f.errorEntries(tt.kind); n != 1 {
				t.Errorf("Expected one %s entry, got %d", tt.kind, n)
			}
			if n := atomic.LoadInt64(f.hits); n != 1 {
				t.Errorf("Expected one request without retry, got %d", n)
			}
		})
	}
}

func TestSubmitNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client, err := predict.New(predict.Config{Endpoint: endpoint, MinClasses: 2}, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	var hits int64
	f := newFixtureWithClient(t, client, &hits)
	f.ctrl.SelectFile(imageFile("scan.png"))

	outcome, err := f.ctrl.Submit(context.Background())
	if !errors.Is(err, predict.ErrNetwork) {
		t.Fatalf("Expected network error, got %v", err)
	}
	if outcome.Kind != predict.KindNetwork {
		t.Errorf("Expected network outcome, got %+v", outcome)
	}
	if f.store.Get() != nil {
		t.Error("Store must stay empty")
	}
	if n := f.errorEntries(predict.KindNetwork); n != 1 {
		t.Errorf("Expected one network entry, got %d", n)
	}
}

func TestSequentialSubmitsShowLatest(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch header.Filename {
		case "a.png":
			_, _ = w.Write([]byte(`{"prediction": [[0.9, 0.1]]}`))
		default:
			_, _ = w.Write([]byte(`{"prediction": [[0.3, 0.7]]}`))
		}
	})

	f.ctrl.SelectFile(imageFile("a.png"))
	if _, err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("Submit A failed: %v", err)
	}
	f.ctrl.SelectFile(imageFile("b.png"))
	if _, err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("Submit B failed: %v", err)
	}

	series, err := chart.Series(f.store.Get())
	if err != nil {
		t.Fatalf("Series failed: %v", err)
	}
	if len(series) != 2 || series[0].Score != 0.3 || series[1].Score != 0.7 {
		t.Errorf("Expected only P2 to be shown, got %+v", series)
	}
	if f.store.Outcome().Seq != 2 {
		t.Errorf("Expected seq 2, got %d", f.store.Outcome().Seq)
	}
}

type stubPredictor map[string]struct {
	m   predict.Matrix
	err error
}

func (s stubPredictor) Predict(_ context.Context, img predict.Image) (predict.Matrix, error) {
	r := s[img.Name]
	return r.m, r.err
}

func TestStaleResultIsDiscarded(t *testing.T) {
	stub := stubPredictor{
		"a.png": {err: predict.NewServerError(http.StatusBadGateway, "slow upstream")},
		"b.png": {m: predict.Matrix{{0.25, 0.75}}},
	}
	f := newFixtureWithClient(t, stub, nil)

	f.ctrl.SelectFile(imageFile("a.png"))
	first, ok := f.ctrl.Begin()
	if !ok {
		t.Fatal("Expected ticket for a.png")
	}
	f.ctrl.SelectFile(imageFile("b.png"))
	second, ok := f.ctrl.Begin()
	if !ok {
		t.Fatal("Expected ticket for b.png")
	}
	if second.Seq <= first.Seq {
		t.Fatalf("Sequence must increase: %d then %d", first.Seq, second.Seq)
	}
	if f.store.Outcome().State != store.Uploading {
		t.Errorf("Expected uploading state, got %s", f.store.Outcome().State)
	}

	// the newer request finishes first
	if !f.ctrl.Complete(f.ctrl.Run(context.Background(), second)) {
		t.Error("Latest result should be applied")
	}
	if f.ctrl.Complete(f.ctrl.Run(context.Background(), first)) {
		t.Error("Stale result should be discarded")
	}

	got := f.store.Get()
	if len(got) != 1 || got[0][1] != 0.75 {
		t.Errorf("Expected b.png prediction, got %v", got)
	}
	if o := f.store.Outcome(); o.State != store.Succeeded || o.Seq != second.Seq {
		t.Errorf("Stale failure must not change outcome, got %+v", o)
	}
	if n := f.logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Errorf("Stale failure must not be logged as an error, got %d entries", n)
	}
}

func TestSelectorOwnedByController(t *testing.T) {
	f := newFixtureWithClient(t, stubPredictor{}, nil)
	a, b := imageFile("a.png"), imageFile("b.png")

	f.ctrl.SelectFile(a)
	f.ctrl.SelectFile(b)

	current, ok := f.ctrl.Selector().Current()
	if !ok || current != b {
		t.Errorf("Expected b.png selected, got %+v", current)
	}
	if f.ctrl.Store() != f.store {
		t.Error("Store accessor should return the wired store")
	}
}

type predictFunc func(ctx context.Context, img predict.Image) (predict.Matrix, error)

func (f predictFunc) Predict(ctx context.Context, img predict.Image) (predict.Matrix, error) {
	return f(ctx, img)
}

func TestSubmitReportsStaleResult(t *testing.T) {
	var f *fixture
	var newer store.Outcome
	var newerErr error

	f = newFixtureWithClient(t, predictFunc(func(ctx context.Context, img predict.Image) (predict.Matrix, error) {
		if img.Name == "a.png" {
			// b.png is submitted and answered while a.png is still in flight
			f.ctrl.SelectFile(imageFile("b.png"))
			newer, newerErr = f.ctrl.Submit(ctx)
			return predict.Matrix{{0.9, 0.1}}, nil
		}
		return predict.Matrix{{0.3, 0.7}}, nil
	}), nil)

	f.ctrl.SelectFile(imageFile("a.png"))
	outcome, err := f.ctrl.Submit(context.Background())

	if newerErr != nil || newer.State != store.Succeeded {
		t.Fatalf("Newer submit should succeed, got %+v, %v", newer, newerErr)
	}
	if !errors.Is(err, ErrStale) {
		t.Fatalf("Expected ErrStale for the superseded submit, got %v", err)
	}
	if outcome != f.store.Outcome() || outcome.Seq != newer.Seq {
		t.Errorf("Stale submit should report the store outcome %+v, got %+v", f.store.Outcome(), outcome)
	}
	if got := f.store.Get(); len(got) != 1 || got[0][1] != 0.7 {
		t.Errorf("Expected b.png prediction in store, got %v", got)
	}
}
