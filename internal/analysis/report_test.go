package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hmoss/pocketwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildReport_EmptySnapshot(t *testing.T) {
	report, err := BuildReport(nil, DefaultConfig())
	require.NoError(t, err)

	assert.Empty(t, report.Subscriptions)
	assert.Empty(t, report.FrequentMerchants)
	assert.Zero(t, report.TotalMonthlyCost)
	assert.Zero(t, report.Analyzed)
	assert.Zero(t, report.Skipped)
}

func TestBuildReport_CombinesBothViews(t *testing.T) {
	var txns []model.Transaction
	txns = append(txns, monthlySeries("Netflix.com", -1599, mustDate("2024-01-15"), 3)...)
	txns = append(txns, monthlySeries("Spotify AB", -1099, mustDate("2024-01-20"), 3)...)
	// Frequent but not periodic.
	for i, day := range []string{"2024-03-01", "2024-03-04", "2024-03-11", "2024-03-13"} {
		txns = append(txns, makeTxn("tx_coffee_"+day, day+"T08:30:00Z", -350-int64(i*40), "Acme Coffee"))
	}

	cfg := DefaultConfig()
	cfg.MinTransactions = 3
	report, err := BuildReport(txns, cfg)
	require.NoError(t, err)

	require.Len(t, report.Subscriptions, 2)
	assert.Equal(t, int64(1599+1099), report.TotalMonthlyCost)

	// A detected subscription is also a frequent merchant: the two
	// classifications are independent.
	keys := make(map[string]bool)
	for _, m := range report.FrequentMerchants {
		keys[m.Key] = true
	}
	assert.True(t, keys["netflix.com"])
	assert.True(t, keys["spotify"])
	assert.True(t, keys["acme coffee"])
}

func TestBuildReport_SkippedRecordsReported(t *testing.T) {
	txns := monthlySeries("Netflix.com", -1599, mustDate("2024-01-15"), 3)
	bad := makeTxn("tx_bad", "2024-02-01T09:00:00Z", 0, "Corrupt Row")
	bad.Amount = json.Number("one hundred")
	txns = append(txns, bad)

	report, err := BuildReport(txns, DefaultConfig())
	require.NoError(t, err, "a malformed record never aborts the analysis")
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 3, report.Analyzed)
	assert.Len(t, report.Subscriptions, 1)
}

func TestBuildReport_Deterministic(t *testing.T) {
	var txns []model.Transaction
	txns = append(txns, monthlySeries("Netflix.com", -1599, mustDate("2024-01-15"), 3)...)
	txns = append(txns, monthlySeries("Spotify AB", -1099, mustDate("2024-01-20"), 3)...)
	txns = append(txns, monthlySeries("Jittery Gym", -3500, mustDate("2024-01-03"), 3)...)

	first, err := BuildReport(txns, DefaultConfig())
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	// Repeated invocations over the same snapshot are byte-identical.
	for i := 0; i < 5; i++ {
		again, buildErr := BuildReport(txns, DefaultConfig())
		require.NoError(t, buildErr)
		againJSON, marshalErr := json.Marshal(again)
		require.NoError(t, marshalErr)
		assert.Equal(t, firstJSON, againJSON)
	}

	// Input order does not matter: the core re-sorts as needed.
	reversed := make([]model.Transaction, len(txns))
	for i, txn := range txns {
		reversed[len(txns)-1-i] = txn
	}
	fromReversed, err := BuildReport(reversed, DefaultConfig())
	require.NoError(t, err)
	reversedJSON, err := json.Marshal(fromReversed)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, reversedJSON)
}

func TestBuildReport_TotalSumsMonthlyEquivalents(t *testing.T) {
	var txns []model.Transaction
	txns = append(txns, monthlySeries("Netflix.com", -1599, mustDate("2024-01-15"), 3)...)
	var weekly []model.Transaction
	for i := 0; i < 4; i++ {
		ts := mustDate("2024-02-02").AddDate(0, 0, 7*i)
		weekly = append(weekly, makeTxn("tx_veg_"+ts.Format("0102"), ts.Format(time.RFC3339), -1000, "Weekly Veg Box"))
	}
	txns = append(txns, weekly...)

	report, err := BuildReport(txns, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, report.Subscriptions, 2)
	assert.Equal(t, int64(1599+4286), report.TotalMonthlyCost)
}
