package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewired-gh/arbscan/internal/models"
)

// runForEachBackend exercises the same Store contract against both backends.
func runForEachBackend(t *testing.T, test func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("file", func(t *testing.T) {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "stats.json"))
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		test(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		test(t, s)
	})
}

func testRecord(ts time.Time, opportunities int, alerts int, bestPct float64) models.ScanRecord {
	rec := models.ScanRecord{
		Timestamp:          ts.UTC(),
		SourceAEvents:      10,
		SourceBEvents:      20,
		Matched:            3,
		OpportunitiesCount: opportunities,
		AlertsSent:         alerts,
		Opportunities:      []models.OpportunitySummary{},
	}
	for i := 0; i < opportunities; i++ {
		pct := bestPct - float64(i) // first summary carries the best pct
		rec.Opportunities = append(rec.Opportunities, models.OpportunitySummary{
			Title:     fmt.Sprintf("opportunity %d", i),
			Direction: models.BuyYesANoB,
			ProfitPct: pct,
			Profit:    pct / 100,
			YesA:      0.4, NoA: 0.6, YesB: 0.55, NoB: 0.45,
		})
	}
	return rec
}

func TestStore_ReadEmpty(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s Store) {
		snap, err := s.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if snap != nil {
			t.Errorf("expected nil snapshot before first record, got %+v", snap)
		}
	})
}

func TestStore_RoundTrip(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s Store) {
		ts := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
		rec := testRecord(ts, 2, 1, 5.0)

		if err := s.Record(rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
		snap, err := s.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if snap == nil {
			t.Fatal("expected snapshot after record")
		}
		if len(snap.ScanHistory) != 1 {
			t.Fatalf("history length = %d, want 1", len(snap.ScanHistory))
		}
		got := snap.ScanHistory[0]
		if !got.Timestamp.Equal(ts) {
			t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
		}
		if got.SourceAEvents != 10 || got.SourceBEvents != 20 || got.Matched != 3 {
			t.Errorf("counts not round-tripped: %+v", got)
		}
		if len(got.Opportunities) != 2 {
			t.Errorf("opportunities = %d, want 2", len(got.Opportunities))
		}
		if snap.LastScan == nil || !snap.LastScan.Timestamp.Equal(ts) {
			t.Error("last_scan should duplicate the newest history entry")
		}
	})
}

func TestStore_HistoryCapAndCumulativeTotals(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s Store) {
		base := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
		const n = 120
		for i := 0; i < n; i++ {
			rec := testRecord(base.Add(time.Duration(i)*time.Minute), 1, 1, 2.0)
			if err := s.Record(rec); err != nil {
				t.Fatalf("Record %d: %v", i, err)
			}
		}
		snap, err := s.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if len(snap.ScanHistory) != 100 {
			t.Errorf("history length = %d, want 100", len(snap.ScanHistory))
		}
		if snap.TotalScans != n {
			t.Errorf("total_scans = %d, want %d (cumulative, not history length)", snap.TotalScans, n)
		}
		if snap.TotalOpportunities != n || snap.TotalAlerts != n {
			t.Errorf("running totals not cumulative: %d opportunities, %d alerts", snap.TotalOpportunities, snap.TotalAlerts)
		}
		// Oldest entries evicted first: history tail is the newest record.
		newest := base.Add((n - 1) * time.Minute)
		if !snap.ScanHistory[99].Timestamp.Equal(newest) {
			t.Errorf("history tail = %v, want %v", snap.ScanHistory[99].Timestamp, newest)
		}
		oldestKept := base.Add((n - 100) * time.Minute)
		if !snap.ScanHistory[0].Timestamp.Equal(oldestKept) {
			t.Errorf("history head = %v, want %v", snap.ScanHistory[0].Timestamp, oldestKept)
		}
	})
}

func TestStore_BestOpportunityStrictlyGreater(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s Store) {
		base := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

		if err := s.Record(testRecord(base, 1, 0, 5.0)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		snap, _ := s.Read()
		if snap.Best == nil || snap.Best.ProfitPct != 5.0 {
			t.Fatalf("best = %+v, want profit pct 5.0", snap.Best)
		}
		firstSeen := snap.Best.Timestamp

		// Equal profit must not overwrite the stored best.
		if err := s.Record(testRecord(base.Add(time.Minute), 1, 0, 5.0)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		snap, _ = s.Read()
		if !snap.Best.Timestamp.Equal(firstSeen) {
			t.Error("equal profit pct overwrote best opportunity")
		}

		// Lower profit must not overwrite either.
		if err := s.Record(testRecord(base.Add(2*time.Minute), 1, 0, 3.0)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		snap, _ = s.Read()
		if snap.Best.ProfitPct != 5.0 {
			t.Errorf("lower profit replaced best: %v", snap.Best.ProfitPct)
		}

		// Strictly greater does.
		if err := s.Record(testRecord(base.Add(3*time.Minute), 1, 0, 9.5)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		snap, _ = s.Read()
		if snap.Best.ProfitPct != 9.5 {
			t.Errorf("best not updated on strictly greater profit: %v", snap.Best.ProfitPct)
		}
	})
}

func TestStore_NoOpportunitiesKeepsBest(t *testing.T) {
	runForEachBackend(t, func(t *testing.T, s Store) {
		base := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
		if err := s.Record(testRecord(base, 1, 0, 4.0)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if err := s.Record(testRecord(base.Add(time.Minute), 0, 0, 0)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		snap, _ := s.Read()
		if snap.Best == nil || snap.Best.ProfitPct != 4.0 {
			t.Errorf("empty cycle should not disturb best: %+v", snap.Best)
		}
	})
}

func TestFileStore_CorruptFileReinitializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	rec := testRecord(time.Now(), 0, 0, 0)
	if err := s.Record(rec); err != nil {
		t.Fatalf("Record on corrupt store: %v", err)
	}
	snap, err := s.Read()
	if err != nil {
		t.Fatalf("Read after reinit: %v", err)
	}
	if snap.TotalScans != 1 || len(snap.ScanHistory) != 1 {
		t.Errorf("expected fresh store after corruption, got %d scans", snap.TotalScans)
	}
}

func TestFileStore_DefaultPath(t *testing.T) {
	s, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore with empty path: %v", err)
	}
	_ = s.Close()
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Record(testRecord(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), 1, 1, 2.0)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	snap, err := reopened.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap == nil || snap.TotalScans != 1 {
		t.Errorf("expected totals to survive reopen, got %+v", snap)
	}
}
