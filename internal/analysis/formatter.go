package analysis

import (
	"fmt"
	"strings"

	"github.com/hmoss/pocketwatch/internal/model"
)

var periodSuffix = map[Period]string{
	PeriodWeekly:    "/week",
	PeriodMonthly:   "/month",
	PeriodQuarterly: "/quarter",
	PeriodAnnual:    "/year",
}

// FormatSubscriptions renders detected subscriptions as plain text for a
// tool result or terminal, grouped by period with a monthly total.
func FormatSubscriptions(subscriptions []SubscriptionCandidate, skipped int) string {
	if len(subscriptions) == 0 {
		return "No subscriptions detected.\n\nTip: subscriptions are detected from recurring charges with consistent amounts over the lookback window."
	}

	var b strings.Builder
	b.WriteString("Detected subscriptions:\n")

	var totalMonthly int64
	for _, p := range []Period{PeriodMonthly, PeriodWeekly, PeriodQuarterly, PeriodAnnual} {
		var group []SubscriptionCandidate
		for _, s := range subscriptions {
			if s.Period == p {
				group = append(group, s)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n%s:\n", strings.Title(string(p)))
		for _, s := range group {
			fmt.Fprintf(&b, "  - %s: %s%s (confidence %.2f, next ~%s)\n",
				s.Merchant,
				model.FormatMoney(s.Amount, s.Currency),
				periodSuffix[s.Period],
				s.Confidence,
				s.NextExpected.Format("Jan 02"))
			totalMonthly += s.MonthlyCost
		}
	}

	fmt.Fprintf(&b, "\nEstimated monthly total: %s\n", model.FormatMoney(totalMonthly, subscriptions[0].Currency))
	if skipped > 0 {
		fmt.Fprintf(&b, "Skipped %d malformed transaction(s).\n", skipped)
	}
	return b.String()
}

// FormatFrequentMerchants renders the frequency ranking as plain text.
func FormatFrequentMerchants(merchants []FrequentMerchant, skipped int) string {
	if len(merchants) == 0 {
		return "No frequent merchants found.\n\nTip: a merchant needs enough transactions in the lookback window to appear here."
	}

	var b strings.Builder
	b.WriteString("Frequent merchants:\n\n")

	var totalAll int64
	currency := merchants[0].Currency
	for _, m := range merchants {
		fmt.Fprintf(&b, "%s (%d transactions)\n", m.Merchant, m.Count)
		fmt.Fprintf(&b, "  Total: %s | Avg: %s\n",
			model.FormatMoney(m.TotalSpend, m.Currency),
			model.FormatMoney(m.AverageSpend, m.Currency))
		totalAll += m.TotalSpend
	}

	fmt.Fprintf(&b, "\nTotal across frequent merchants: %s\n", model.FormatMoney(totalAll, currency))
	if skipped > 0 {
		fmt.Fprintf(&b, "Skipped %d malformed transaction(s).\n", skipped)
	}
	return b.String()
}
