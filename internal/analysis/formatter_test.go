package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSubscriptions(t *testing.T) {
	subs := []SubscriptionCandidate{
		{
			Merchant:     "Netflix",
			Key:          "netflix.com",
			Period:       PeriodMonthly,
			Amount:       1599,
			MonthlyCost:  1599,
			Currency:     "GBP",
			Confidence:   0.96,
			LastCharge:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			NextExpected: time.Date(2024, 4, 14, 10, 0, 0, 0, time.UTC),
			Occurrences:  3,
		},
		{
			Merchant:     "Weekly Veg Box",
			Key:          "weekly veg box",
			Period:       PeriodWeekly,
			Amount:       1000,
			MonthlyCost:  4286,
			Currency:     "GBP",
			Confidence:   1,
			LastCharge:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			NextExpected: time.Date(2024, 3, 8, 8, 0, 0, 0, time.UTC),
			Occurrences:  5,
		},
	}

	out := FormatSubscriptions(subs, 0)

	assert.Contains(t, out, "Monthly:")
	assert.Contains(t, out, "Weekly:")
	assert.Contains(t, out, "Netflix: £15.99/month")
	assert.Contains(t, out, "Weekly Veg Box: £10.00/week")
	assert.Contains(t, out, "next ~Apr 14")
	// 1599 + 4286 monthly-equivalent.
	assert.Contains(t, out, "Estimated monthly total: £58.85")
	assert.NotContains(t, out, "Skipped")

	monthlyIdx := strings.Index(out, "Monthly:")
	weeklyIdx := strings.Index(out, "Weekly:")
	require.GreaterOrEqual(t, monthlyIdx, 0)
	assert.Less(t, monthlyIdx, weeklyIdx, "monthly group renders first")
}

func TestFormatSubscriptions_Empty(t *testing.T) {
	out := FormatSubscriptions(nil, 0)
	assert.Contains(t, out, "No subscriptions detected")
}

func TestFormatSubscriptions_ReportsSkipped(t *testing.T) {
	subs := []SubscriptionCandidate{{
		Merchant: "Netflix", Key: "netflix.com", Period: PeriodMonthly,
		Amount: 1599, MonthlyCost: 1599, Currency: "GBP", Confidence: 0.96,
	}}
	out := FormatSubscriptions(subs, 2)
	assert.Contains(t, out, "Skipped 2 malformed transaction(s)")
}

func TestFormatFrequentMerchants(t *testing.T) {
	merchants := []FrequentMerchant{
		{Merchant: "Busy Bakery", Key: "busy bakery", Count: 4, TotalSpend: 1200, AverageSpend: 300, Currency: "GBP"},
		{Merchant: "Acme Coffee", Key: "acme coffee", Count: 3, TotalSpend: 1130, AverageSpend: 376, Currency: "GBP"},
	}

	out := FormatFrequentMerchants(merchants, 0)

	assert.Contains(t, out, "Busy Bakery (4 transactions)")
	assert.Contains(t, out, "Total: £12.00 | Avg: £3.00")
	assert.Contains(t, out, "Total across frequent merchants: £23.30")
}

func TestFormatFrequentMerchants_Empty(t *testing.T) {
	out := FormatFrequentMerchants(nil, 0)
	assert.Contains(t, out, "No frequent merchants found")
}
