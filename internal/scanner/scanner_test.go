package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rewired-gh/arbscan/internal/models"
)

type fakeProvider struct {
	name    string
	fee     float64
	events  []models.Event
	err     error
	panicOn bool

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) GetEvents(ctx context.Context, limit, maxResolutionDays int) ([]models.Event, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.panicOn {
		panic("malformed payload")
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.events, nil
}

func (p *fakeProvider) FeeRate() float64 { return p.fee }
func (p *fakeProvider) Name() string     { return p.name }

type fakeSink struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (s *fakeSink) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return s.err
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type fakeStore struct {
	records []models.ScanRecord
	err     error
}

func (s *fakeStore) Record(rec models.ScanRecord) error {
	s.records = append(s.records, rec)
	return s.err
}

func (s *fakeStore) Read() (*models.StatsSnapshot, error) { return nil, nil }
func (s *fakeStore) Close() error                         { return nil }

func testEvent(id, title, source string, end time.Time, yes, no float64) models.Event {
	return models.Event{
		ID:      id,
		Title:   title,
		EndDate: end,
		Source:  source,
		URL:     "https://example.com/" + id,
		Markets: []models.Market{
			{
				ID:       id + "-m",
				Question: title,
				YesPrice: models.Float64Ptr(yes),
				NoPrice:  models.Float64Ptr(no),
			},
		},
	}
}

func testConfig() Config {
	return Config{
		ScanInterval:          time.Minute,
		RecoveryInterval:      time.Second,
		MinProfitPct:          0.5,
		AlertCooldown:         30 * time.Minute,
		SimilarityThreshold:   0.5,
		DateToleranceDays:     3,
		ResolutionHorizonDays: 3,
		EventLimit:            50,
	}
}

func newTestScanner(cfg Config, a, b *fakeProvider, sink *fakeSink, store *fakeStore) *Scanner {
	var s AlertSink
	if sink != nil {
		s = sink
	}
	return New(cfg, a, b, s, store)
}

func TestRunCycleDetectsAndAlerts(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	a := &fakeProvider{
		name:   "Polymarket",
		fee:    0.002,
		events: []models.Event{testEvent("pm-1", "Will it rain tomorrow?", "polymarket", end, 0.40, 0.60)},
	}
	b := &fakeProvider{
		name:   "Manifold",
		fee:    0.0,
		events: []models.Event{testEvent("mf-1", "Will it rain tomorrow?", "manifold", end, 0.55, 0.45)},
	}
	sink := &fakeSink{}
	store := &fakeStore{}

	s := newTestScanner(testConfig(), a, b, sink, store)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	// YES@A 0.40 + NO@B 0.45 with 0.2% fee on A is well below $1.
	if sink.count() != 1 {
		t.Fatalf("Expected 1 alert, got %d", sink.count())
	}
	if !strings.Contains(sink.messages[0], "Will it rain tomorrow?") {
		t.Errorf("Alert missing event title: %q", sink.messages[0])
	}

	if len(store.records) != 1 {
		t.Fatalf("Expected 1 scan record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.SourceAEvents != 1 || rec.SourceBEvents != 1 {
		t.Errorf("Unexpected event counts: %d/%d", rec.SourceAEvents, rec.SourceBEvents)
	}
	if rec.Matched != 1 {
		t.Errorf("Expected 1 matched pair, got %d", rec.Matched)
	}
	if rec.AlertsSent != 1 {
		t.Errorf("Expected 1 alert sent, got %d", rec.AlertsSent)
	}
}

func TestRunCycleCooldownSuppression(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	a := &fakeProvider{
		name:   "Polymarket",
		fee:    0.0,
		events: []models.Event{testEvent("pm-1", "BTC above 100k by June?", "polymarket", end, 0.40, 0.60)},
	}
	b := &fakeProvider{
		name:   "Manifold",
		fee:    0.0,
		events: []models.Event{testEvent("mf-1", "BTC above 100k by June?", "manifold", end, 0.55, 0.45)},
	}
	sink := &fakeSink{}
	store := &fakeStore{}

	s := newTestScanner(testConfig(), a, b, sink, store)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	first := sink.count()
	if first == 0 {
		t.Fatal("Expected at least one alert on first cycle")
	}

	// Within the window the same opportunity stays silent.
	clock = clock.Add(10 * time.Minute)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("Second cycle failed: %v", err)
	}
	if sink.count() != first {
		t.Errorf("Expected cooldown suppression, alerts went %d -> %d", first, sink.count())
	}
	if store.records[1].AlertsSent != 0 {
		t.Errorf("Suppressed cycle should report 0 alerts sent, got %d", store.records[1].AlertsSent)
	}

	// At exactly the window boundary the alert fires again.
	clock = clock.Add(20 * time.Minute)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("Third cycle failed: %v", err)
	}
	if sink.count() != 2*first {
		t.Errorf("Expected alert after cooldown expiry, got %d total", sink.count())
	}
}

func TestRunCycleSurvivesProviderFailure(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	a := &fakeProvider{
		name: "Polymarket",
		err:  errors.New("upstream 503"),
	}
	b := &fakeProvider{
		name:   "Manifold",
		events: []models.Event{testEvent("mf-1", "Some question", "manifold", end, 0.50, 0.50)},
	}
	sink := &fakeSink{}
	store := &fakeStore{}

	s := newTestScanner(testConfig(), a, b, sink, store)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("Cycle should survive a failing source, got: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("Expected 1 scan record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.SourceAEvents != 0 {
		t.Errorf("Failed source should contribute 0 events, got %d", rec.SourceAEvents)
	}
	if rec.SourceBEvents != 1 {
		t.Errorf("Healthy source should still be counted, got %d", rec.SourceBEvents)
	}
	if sink.count() != 0 {
		t.Errorf("Expected no alerts, got %d", sink.count())
	}
}

func TestRunCycleRecoversFromPanic(t *testing.T) {
	a := &fakeProvider{name: "Polymarket", panicOn: true}
	b := &fakeProvider{name: "Manifold"}
	store := &fakeStore{}

	s := newTestScanner(testConfig(), a, b, nil, store)

	err := s.RunCycle(context.Background())
	if err == nil {
		t.Fatal("Expected a panicking cycle to surface an error")
	}
	if !strings.Contains(err.Error(), "cycle panicked") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRunCycleNilSink(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	a := &fakeProvider{
		name:   "Polymarket",
		events: []models.Event{testEvent("pm-1", "Quiet market", "polymarket", end, 0.30, 0.70)},
	}
	b := &fakeProvider{
		name:   "Manifold",
		events: []models.Event{testEvent("mf-1", "Quiet market", "manifold", end, 0.60, 0.40)},
	}
	store := &fakeStore{}

	s := newTestScanner(testConfig(), a, b, nil, store)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle with nil sink failed: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("Expected 1 scan record, got %d", len(store.records))
	}
	// Opportunities count even when nothing can deliver them.
	if store.records[0].OpportunitiesCount == 0 {
		t.Error("Expected opportunities to be recorded without a sink")
	}
	if store.records[0].AlertsSent == 0 {
		t.Error("Dispatch accounting should be independent of sink presence")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := &fakeProvider{name: "Polymarket"}
	b := &fakeProvider{name: "Manifold"}
	store := &fakeStore{}

	cfg := testConfig()
	cfg.ScanInterval = 10 * time.Millisecond
	cfg.RecoveryInterval = 10 * time.Millisecond

	s := newTestScanner(cfg, a, b, nil, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}

	a.mu.Lock()
	calls := a.calls
	a.mu.Unlock()
	if calls == 0 {
		t.Error("Expected at least one cycle before cancellation")
	}
}

func TestCooldownSweep(t *testing.T) {
	c := newCooldownState()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	c.stamp("fresh", now.Add(-window))
	c.stamp("stale", now.Add(-5*window))

	c.sweep(now, window)

	if c.size() != 1 {
		t.Fatalf("Expected 1 surviving entry, got %d", c.size())
	}
	if !c.ready("stale", now, window) {
		t.Error("Evicted key should be ready again")
	}
	if !c.ready("fresh", now, window) {
		t.Error("Key aged exactly one window should be ready")
	}
}
