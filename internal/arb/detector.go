// Package arb computes fee-adjusted arbitrage opportunities over matched
// event pairs.
package arb

import (
	"github.com/rewired-gh/arbscan/internal/models"
)

// Detect evaluates both hedge directions for every matched pair and returns
// the opportunities whose profit percentage meets minProfitPct. Fee rates
// are proportional surcharges on price (0.002 = 0.2%). Only the first
// market of each event is considered; pairs with missing markets or any
// missing quote are skipped. Pure function of its inputs: the same pairs
// and rates always yield identical opportunities.
func Detect(pairs []models.MatchedPair, feeRateA, feeRateB, minProfitPct float64) []models.Opportunity {
	var opportunities []models.Opportunity

	for _, pair := range pairs {
		if len(pair.A.Markets) == 0 || len(pair.B.Markets) == 0 {
			continue
		}
		marketA := pair.A.Markets[0]
		marketB := pair.B.Markets[0]

		if marketA.YesPrice == nil || marketA.NoPrice == nil ||
			marketB.YesPrice == nil || marketB.NoPrice == nil {
			continue
		}
		yesA, noA := *marketA.YesPrice, *marketA.NoPrice
		yesB, noB := *marketB.YesPrice, *marketB.NoPrice

		// Direction 1: YES on A + NO on B. Both directions are evaluated
		// independently; a single pair may emit zero, one, or two
		// opportunities.
		if opp, ok := evaluate(pair, models.BuyYesANoB, yesA, noB, feeRateA, feeRateB, minProfitPct); ok {
			opportunities = append(opportunities, opp)
		}

		// Direction 2: NO on A + YES on B.
		if opp, ok := evaluate(pair, models.BuyNoAYesB, noA, yesB, feeRateA, feeRateB, minProfitPct); ok {
			opportunities = append(opportunities, opp)
		}
	}
	return opportunities
}

// evaluate prices one hedge direction. The hedge always pays out 1.0 when
// both markets resolve consistently, so profit is payout minus the
// fee-adjusted cost of the two legs.
func evaluate(pair models.MatchedPair, direction models.Direction, priceA, priceB, feeRateA, feeRateB, minProfitPct float64) (models.Opportunity, bool) {
	rawCost := priceA + priceB
	feeCost := priceA*(1+feeRateA) + priceB*(1+feeRateB)
	profit := 1.0 - feeCost

	profitPct := 0.0
	if feeCost > 0 {
		profitPct = profit / feeCost * 100
	}

	if profitPct < minProfitPct {
		return models.Opportunity{}, false
	}
	return models.Opportunity{
		Pair:            pair,
		Direction:       direction,
		PriceA:          priceA,
		PriceB:          priceB,
		RawCost:         rawCost,
		FeeAdjustedCost: feeCost,
		Payout:          1.0,
		Profit:          profit,
		ProfitPct:       profitPct,
	}, true
}
