// Package matcher pairs semantically equivalent events across two sources
// using resolution-date proximity and title similarity.
package matcher

import (
	"time"

	"github.com/rewired-gh/arbscan/internal/logger"
	"github.com/rewired-gh/arbscan/internal/models"
)

// Match pairs each source event with the most similar target event whose
// resolution time lies within dateToleranceDays. Each source event yields at
// most one pair; a target event may be claimed by several source events.
// Candidates at exactly the tolerance boundary are kept; the comparison is
// on the exact duration, not calendar days. Ties on similarity resolve to
// the first-seen target because the running best is only replaced on a
// strictly higher score. Output order follows source iteration order.
func Match(source, target []models.Event, similarityThreshold float64, dateToleranceDays int) []models.MatchedPair {
	maxDateDiff := time.Duration(dateToleranceDays) * 24 * time.Hour

	logger.Debug("Matching %d source events against %d target events (threshold: %.2f, tolerance: %dd)",
		len(source), len(target), similarityThreshold, dateToleranceDays)

	var pairs []models.MatchedPair
	for _, src := range source {
		var best *models.Event
		bestSimilarity := 0.0

		for i := range target {
			candidate := &target[i]

			dateDiff := src.EndDate.Sub(candidate.EndDate)
			if dateDiff < 0 {
				dateDiff = -dateDiff
			}
			if dateDiff > maxDateDiff {
				continue
			}

			similarity := Similarity(src.Title, candidate.Title)
			if similarity >= similarityThreshold && similarity > bestSimilarity {
				best = candidate
				bestSimilarity = similarity
			}
		}

		if best != nil {
			logger.Debug("Matched %q <-> %q (similarity: %.3f)", src.Title, best.Title, bestSimilarity)
			pairs = append(pairs, models.MatchedPair{
				A:          src,
				B:          *best,
				Similarity: bestSimilarity,
			})
		}
	}
	return pairs
}
