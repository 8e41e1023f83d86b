package models

import "fmt"

// Direction identifies which hedge construction an opportunity uses. Both
// legs together always pay out 1.0 if the two markets resolve consistently.
type Direction string

const (
	// BuyYesANoB buys YES on source A and NO on source B.
	BuyYesANoB Direction = "buy_yes_a_no_b"
	// BuyNoAYesB buys NO on source A and YES on source B.
	BuyNoAYesB Direction = "buy_no_a_yes_b"
)

// Describe renders the direction for humans using the platform names.
func (d Direction) Describe(sourceA, sourceB string) string {
	switch d {
	case BuyYesANoB:
		return fmt.Sprintf("Buy YES on %s + NO on %s", sourceA, sourceB)
	case BuyNoAYesB:
		return fmt.Sprintf("Buy NO on %s + YES on %s", sourceA, sourceB)
	}
	return string(d)
}

// MatchedPair holds two events from different sources believed to represent
// the same real-world outcome. Pairing is greedy, not one-to-one: the same
// B event may appear in several pairs.
type MatchedPair struct {
	A          Event   `json:"a"`
	B          Event   `json:"b"`
	Similarity float64 `json:"similarity"`
}

// Opportunity is a fee-adjusted arbitrage candidate for one hedge direction
// of a matched pair. Recomputed every cycle, never mutated after creation.
type Opportunity struct {
	Pair            MatchedPair `json:"pair"`
	Direction       Direction   `json:"direction"`
	PriceA          float64     `json:"price_a"`
	PriceB          float64     `json:"price_b"`
	RawCost         float64     `json:"raw_cost"`
	FeeAdjustedCost float64     `json:"fee_adjusted_cost"`
	Payout          float64     `json:"payout"`
	Profit          float64     `json:"profit"`
	ProfitPct       float64     `json:"profit_pct"`
}

// CooldownKey returns the stable identity used for alert deduplication:
// same pair of events and same direction.
func (o *Opportunity) CooldownKey() string {
	return o.Pair.A.ID + "_" + o.Pair.B.ID + "_" + string(o.Direction)
}
