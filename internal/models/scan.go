package models

import "time"

// Truncation limits for the summaries persisted with each scan. The stats
// document is rewritten every cycle, so previews stay small on purpose.
const (
	titlePreviewLen   = 60
	matchedPreviewLen = 50
	maxSampleEvents   = 5
	maxMatchedDetails = 10
)

// OpportunitySummary is the compact opportunity form stored in scan history.
type OpportunitySummary struct {
	Title     string    `json:"title"`
	Direction Direction `json:"direction"`
	ProfitPct float64   `json:"profit_pct"`
	Profit    float64   `json:"profit"`
	YesA      float64   `json:"yes_a"`
	NoA       float64   `json:"no_a"`
	YesB      float64   `json:"yes_b"`
	NoB       float64   `json:"no_b"`
}

// EventPreview is a truncated event snapshot for dashboard display.
type EventPreview struct {
	Title        string    `json:"title"`
	EndDate      time.Time `json:"end_date"`
	MarketsCount int       `json:"markets_count"`
}

// MatchPreview is a truncated matched-pair snapshot for dashboard display.
type MatchPreview struct {
	TitleA   string    `json:"a_title"`
	TitleB   string    `json:"b_title"`
	EndDateA time.Time `json:"a_end_date"`
	EndDateB time.Time `json:"b_end_date"`
}

// ScanRecord is one per-cycle snapshot appended to the stats history.
type ScanRecord struct {
	Timestamp          time.Time            `json:"timestamp"`
	SourceAEvents      int                  `json:"source_a_events"`
	SourceBEvents      int                  `json:"source_b_events"`
	Matched            int                  `json:"matched"`
	OpportunitiesCount int                  `json:"opportunities_count"`
	AlertsSent         int                  `json:"alerts_sent"`
	Opportunities      []OpportunitySummary `json:"opportunities"`
	SourceASample      []EventPreview       `json:"source_a_sample,omitempty"`
	SourceBSample      []EventPreview       `json:"source_b_sample,omitempty"`
	MatchedDetails     []MatchPreview       `json:"matched_details,omitempty"`
}

// BestOpportunity tracks the highest-profit opportunity ever recorded.
type BestOpportunity struct {
	Title     string    `json:"title"`
	ProfitPct float64   `json:"profit_pct"`
	Profit    float64   `json:"profit"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsSnapshot is the full persisted stats document read by the dashboard.
// History is newest-last and capped at 100 entries; totals are cumulative
// over the lifetime of the store, not over the truncated history.
type StatsSnapshot struct {
	ScanHistory        []ScanRecord     `json:"scan_history"`
	TotalScans         int              `json:"total_scans"`
	TotalOpportunities int              `json:"total_opportunities"`
	TotalAlerts        int              `json:"total_alerts"`
	Best               *BestOpportunity `json:"best_opportunity"`
	LastScan           *ScanRecord      `json:"last_scan"`
}

// NewScanRecord assembles a ScanRecord snapshot from one completed cycle.
func NewScanRecord(
	ts time.Time,
	eventsA, eventsB []Event,
	pairs []MatchedPair,
	opportunities []Opportunity,
	alertsSent int,
) ScanRecord {
	rec := ScanRecord{
		Timestamp:          ts.UTC(),
		SourceAEvents:      len(eventsA),
		SourceBEvents:      len(eventsB),
		Matched:            len(pairs),
		OpportunitiesCount: len(opportunities),
		AlertsSent:         alertsSent,
		Opportunities:      make([]OpportunitySummary, 0, len(opportunities)),
	}
	for _, opp := range opportunities {
		rec.Opportunities = append(rec.Opportunities, summarizeOpportunity(opp))
	}
	rec.SourceASample = sampleEvents(eventsA)
	rec.SourceBSample = sampleEvents(eventsB)
	rec.MatchedDetails = sampleMatches(pairs)
	return rec
}

func summarizeOpportunity(opp Opportunity) OpportunitySummary {
	s := OpportunitySummary{
		Title:     truncate(opp.Pair.A.Title, titlePreviewLen),
		Direction: opp.Direction,
		ProfitPct: opp.ProfitPct,
		Profit:    opp.Profit,
	}
	if len(opp.Pair.A.Markets) > 0 {
		s.YesA = priceOrZero(opp.Pair.A.Markets[0].YesPrice)
		s.NoA = priceOrZero(opp.Pair.A.Markets[0].NoPrice)
	}
	if len(opp.Pair.B.Markets) > 0 {
		s.YesB = priceOrZero(opp.Pair.B.Markets[0].YesPrice)
		s.NoB = priceOrZero(opp.Pair.B.Markets[0].NoPrice)
	}
	return s
}

func sampleEvents(events []Event) []EventPreview {
	if len(events) == 0 {
		return nil
	}
	n := len(events)
	if n > maxSampleEvents {
		n = maxSampleEvents
	}
	previews := make([]EventPreview, 0, n)
	for _, e := range events[:n] {
		previews = append(previews, EventPreview{
			Title:        truncate(e.Title, titlePreviewLen),
			EndDate:      e.EndDate,
			MarketsCount: len(e.Markets),
		})
	}
	return previews
}

func sampleMatches(pairs []MatchedPair) []MatchPreview {
	if len(pairs) == 0 {
		return nil
	}
	n := len(pairs)
	if n > maxMatchedDetails {
		n = maxMatchedDetails
	}
	previews := make([]MatchPreview, 0, n)
	for _, p := range pairs[:n] {
		previews = append(previews, MatchPreview{
			TitleA:   truncate(p.A.Title, matchedPreviewLen),
			TitleB:   truncate(p.B.Title, matchedPreviewLen),
			EndDateA: p.A.EndDate,
			EndDateB: p.B.EndDate,
		})
	}
	return previews
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func priceOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
