package analysis

import "time"

// SubscriptionCandidate is a cluster classified as a recurring charge.
// Derived per analysis call and never persisted.
type SubscriptionCandidate struct {
	Merchant     string    `json:"merchant"`
	Key          string    `json:"key"`
	Period       Period    `json:"period"`
	Amount       int64     `json:"amount"`
	MonthlyCost  int64     `json:"monthly_cost"`
	Currency     string    `json:"currency"`
	Confidence   float64   `json:"confidence"`
	LastCharge   time.Time `json:"last_charge"`
	NextExpected time.Time `json:"next_expected"`
	Occurrences  int       `json:"occurrences"`
}

// FrequentMerchant is a cluster ranked by how often the account
// transacts with it, independent of any periodicity.
type FrequentMerchant struct {
	Merchant     string `json:"merchant"`
	Key          string `json:"key"`
	Count        int    `json:"count"`
	TotalSpend   int64  `json:"total_spend"`
	AverageSpend int64  `json:"average_spend"`
	Currency     string `json:"currency"`
}

// Report bundles both analytical views over one snapshot, with metadata
// about how much of the snapshot was usable.
type Report struct {
	Subscriptions     []SubscriptionCandidate `json:"subscriptions"`
	FrequentMerchants []FrequentMerchant      `json:"frequent_merchants"`
	// TotalMonthlyCost is the sum of monthly-equivalent subscription
	// costs, in minor units.
	TotalMonthlyCost int64 `json:"total_monthly_cost"`
	// Analyzed is the number of valid transactions inside the lookback
	// window.
	Analyzed int `json:"analyzed"`
	// Skipped counts records dropped for an unparsable timestamp or
	// amount.
	Skipped int `json:"skipped"`
}
