package scanner

import (
	"fmt"
	"strings"

	"github.com/rewired-gh/arbscan/internal/models"
)

// formatAlert renders one opportunity as the alert text handed to the
// sink. Plain text; the sink applies any channel-specific escaping.
func (s *Scanner) formatAlert(opp *models.Opportunity) string {
	nameA, nameB := s.sourceA.Name(), s.sourceB.Name()

	var b strings.Builder
	b.WriteString("CROSS-PLATFORM ARB\n")
	b.WriteString(opp.Pair.A.Title)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Direction: %s\n", opp.Direction.Describe(nameA, nameB))

	if quotes, ok := marketQuotes(opp.Pair.A); ok {
		fmt.Fprintf(&b, "%s YES/NO: %s\n", nameA, quotes)
	}
	if quotes, ok := marketQuotes(opp.Pair.B); ok {
		fmt.Fprintf(&b, "%s YES/NO: %s\n", nameB, quotes)
	}
	fmt.Fprintf(&b, "Cost (after fees): $%.4f | Payout: $%.1f\n", opp.FeeAdjustedCost, opp.Payout)
	fmt.Fprintf(&b, "Profit: $%.4f (%.2f%%)\n", opp.Profit, opp.ProfitPct)

	if opp.Pair.A.URL != "" {
		fmt.Fprintf(&b, "\n%s: %s", nameA, opp.Pair.A.URL)
	}
	if opp.Pair.B.URL != "" {
		fmt.Fprintf(&b, "\n%s: %s", nameB, opp.Pair.B.URL)
	}
	return b.String()
}

func marketQuotes(e models.Event) (string, bool) {
	if len(e.Markets) == 0 {
		return "", false
	}
	m := e.Markets[0]
	if m.YesPrice == nil || m.NoPrice == nil {
		return "", false
	}
	return fmt.Sprintf("$%.4f/$%.4f", *m.YesPrice, *m.NoPrice), true
}
