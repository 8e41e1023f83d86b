// Package scanner drives the arbitrage scan loop: fetch both sources,
// match, detect, dispatch deduplicated alerts, persist stats, sleep,
// repeat. Failures inside a cycle are logged and survived; the loop only
// exits when its context is cancelled.
package scanner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/arbscan/internal/arb"
	"github.com/rewired-gh/arbscan/internal/logger"
	"github.com/rewired-gh/arbscan/internal/matcher"
	"github.com/rewired-gh/arbscan/internal/models"
	"github.com/rewired-gh/arbscan/internal/platform"
	"github.com/rewired-gh/arbscan/internal/stats"
)

// AlertSink delivers alert text to whatever notification channel is
// configured. Delivery is best-effort: the scanner logs failures and moves
// on.
type AlertSink interface {
	Send(text string) error
}

// Config holds the scan-loop tuning knobs.
type Config struct {
	ScanInterval          time.Duration
	RecoveryInterval      time.Duration
	MinProfitPct          float64
	AlertCooldown         time.Duration
	SimilarityThreshold   float64
	DateToleranceDays     int
	ResolutionHorizonDays int
	EventLimit            int
}

// Scanner is the long-running orchestrator. It is single-threaded by
// design: it is the only writer of the cooldown state and the only caller
// of the stats store.
type Scanner struct {
	cfg     Config
	sourceA platform.MarketDataProvider
	sourceB platform.MarketDataProvider
	sink    AlertSink
	store   stats.Store

	cooldowns *cooldownState
	now       func() time.Time
}

// New wires a scanner. sink may be nil when alerting is disabled.
func New(cfg Config, sourceA, sourceB platform.MarketDataProvider, sink AlertSink, store stats.Store) *Scanner {
	return &Scanner{
		cfg:       cfg,
		sourceA:   sourceA,
		sourceB:   sourceB,
		sink:      sink,
		store:     store,
		cooldowns: newCooldownState(),
		now:       time.Now,
	}
}

// Run executes scan cycles until ctx is cancelled. A failed cycle sleeps
// the shorter recovery interval instead of the scan interval; no error is
// ever fatal to the loop.
func (s *Scanner) Run(ctx context.Context) {
	s.notify(s.startupBanner())

	consecutiveFailures := 0
	for {
		err := s.RunCycle(ctx)
		if err != nil {
			consecutiveFailures++
			logger.Error("Scan cycle failed: %v", err)
			if consecutiveFailures == 1 {
				s.notify(fmt.Sprintf("Scanner error: %v", err))
			}
		} else {
			if consecutiveFailures > 0 {
				s.notify(fmt.Sprintf("Scanner recovered after %d failed cycle(s)", consecutiveFailures))
			}
			consecutiveFailures = 0
		}

		delay := s.cfg.ScanInterval
		if err != nil {
			delay = s.cfg.RecoveryInterval
		}
		select {
		case <-ctx.Done():
			logger.Info("Scanner stopped")
			return
		case <-time.After(delay):
		}
	}
}

// RunCycle performs one fetch-match-detect-dispatch-record pass. Panics
// are converted to errors at this boundary so a malformed upstream payload
// can never kill the process.
func (s *Scanner) RunCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if logger.IsDebug() {
				logger.Debug("Cycle panic trace:\n%s", debug.Stack())
			}
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	start := s.now()

	// Both fetches are issued before either result is awaited; a failing
	// source contributes zero events and the cycle continues.
	var eventsA, eventsB []models.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eventsA = s.fetch(gctx, s.sourceA)
		return nil
	})
	g.Go(func() error {
		eventsB = s.fetch(gctx, s.sourceB)
		return nil
	})
	_ = g.Wait()

	pairs := matcher.Match(eventsA, eventsB, s.cfg.SimilarityThreshold, s.cfg.DateToleranceDays)
	opportunities := arb.Detect(pairs, s.sourceA.FeeRate(), s.sourceB.FeeRate(), s.cfg.MinProfitPct)

	alertsSent := s.dispatch(opportunities)

	record := models.NewScanRecord(start, eventsA, eventsB, pairs, opportunities, alertsSent)
	if err := s.store.Record(record); err != nil {
		logger.Error("Failed to record scan stats: %v", err)
	}

	logger.Info("Scanned %d %s events, %d %s events, %d matched, %d opportunity(ies), %d alerted in %v",
		len(eventsA), s.sourceA.Name(), len(eventsB), s.sourceB.Name(),
		len(pairs), len(opportunities), alertsSent, time.Since(start).Round(time.Millisecond))

	return nil
}

// fetch retrieves events from one provider, degrading to an empty slice on
// failure.
func (s *Scanner) fetch(ctx context.Context, provider platform.MarketDataProvider) []models.Event {
	events, err := provider.GetEvents(ctx, s.cfg.EventLimit, s.cfg.ResolutionHorizonDays)
	if err != nil {
		logger.Error("%s fetch failed, treating as zero events this cycle: %v", provider.Name(), err)
		return nil
	}
	logger.Debug("Fetched %d events from %s", len(events), provider.Name())
	return events
}

// dispatch alerts each opportunity outside its cooldown window and stamps
// the window. The stamp happens regardless of delivery outcome, so a flaky
// sink cannot cause alert flooding.
func (s *Scanner) dispatch(opportunities []models.Opportunity) int {
	now := s.now()
	s.cooldowns.sweep(now, s.cfg.AlertCooldown)

	sent := 0
	for i := range opportunities {
		opp := &opportunities[i]
		logger.Info("Opportunity: %s | %s | profit %.4f (%.2f%%)",
			opp.Pair.A.Title, opp.Direction.Describe(s.sourceA.Name(), s.sourceB.Name()),
			opp.Profit, opp.ProfitPct)

		key := opp.CooldownKey()
		if !s.cooldowns.ready(key, now, s.cfg.AlertCooldown) {
			logger.Debug("Suppressed by cooldown: %s", key)
			continue
		}
		s.cooldowns.stamp(key, now)
		sent++

		s.notify(s.formatAlert(opp))
	}
	logger.Debug("Cooldown map holds %d key(s)", s.cooldowns.size())
	return sent
}

// notify sends best-effort text to the sink, if one is configured.
func (s *Scanner) notify(text string) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Send(text); err != nil {
		logger.Warn("Failed to send alert: %v", err)
	}
}

func (s *Scanner) startupBanner() string {
	return fmt.Sprintf(
		"Cross-platform arb scanner online\nMin profit: %.2f%% (after fees) | Cooldown: %v\nSimilarity threshold: %.2f | Date tolerance: %dd",
		s.cfg.MinProfitPct, s.cfg.AlertCooldown, s.cfg.SimilarityThreshold, s.cfg.DateToleranceDays)
}
