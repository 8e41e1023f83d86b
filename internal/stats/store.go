// Package stats maintains the bounded scan history and running aggregates
// consumed by the dashboard. Two backends implement the same Store
// contract: a JSON document on disk and a SQLite database.
package stats

import (
	"github.com/rewired-gh/arbscan/internal/models"
)

// maxHistory bounds the persisted scan history; the oldest entries are
// discarded first.
const maxHistory = 100

// Store is the persistence port for scan statistics. There is no
// cross-process locking: single writer is an operating assumption, not
// something the store enforces.
type Store interface {
	// Record appends one scan snapshot, truncates history to the most
	// recent entries, and updates the running totals.
	Record(rec models.ScanRecord) error
	// Read returns the current snapshot, or (nil, nil) when nothing has
	// been recorded yet.
	Read() (*models.StatsSnapshot, error)
	Close() error
}

// apply folds one scan record into a snapshot. Both backends share these
// semantics: totals are cumulative over the store's lifetime (they keep
// growing past the history cap), and the best opportunity is replaced only
// on a strictly greater profit percentage.
func apply(s *models.StatsSnapshot, rec models.ScanRecord) {
	s.ScanHistory = append(s.ScanHistory, rec)
	if len(s.ScanHistory) > maxHistory {
		s.ScanHistory = s.ScanHistory[len(s.ScanHistory)-maxHistory:]
	}
	s.TotalScans++
	s.TotalOpportunities += rec.OpportunitiesCount
	s.TotalAlerts += rec.AlertsSent

	last := rec
	s.LastScan = &last

	if best := bestOfRecord(rec); best != nil {
		if s.Best == nil || best.ProfitPct > s.Best.ProfitPct {
			s.Best = best
		}
	}
}

func bestOfRecord(rec models.ScanRecord) *models.BestOpportunity {
	var best *models.OpportunitySummary
	for i := range rec.Opportunities {
		if best == nil || rec.Opportunities[i].ProfitPct > best.ProfitPct {
			best = &rec.Opportunities[i]
		}
	}
	if best == nil {
		return nil
	}
	return &models.BestOpportunity{
		Title:     best.Title,
		ProfitPct: best.ProfitPct,
		Profit:    best.Profit,
		Timestamp: rec.Timestamp,
	}
}
