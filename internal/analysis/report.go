package analysis

import (
	"github.com/hmoss/pocketwatch/internal/model"
)

// DetectSubscriptions analyzes a transaction snapshot for recurring
// charges. The snapshot does not need to be ordered.
func DetectSubscriptions(txns []model.Transaction, cfg Config) ([]SubscriptionCandidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return detectSubscriptions(BuildClusters(txns, cfg.LookbackDays), cfg), nil
}

// RankFrequentMerchants ranks the merchants in a transaction snapshot by
// occurrence count and spend.
func RankFrequentMerchants(txns []model.Transaction, cfg Config) ([]FrequentMerchant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return rankFrequentMerchants(BuildClusters(txns, cfg.LookbackDays), cfg), nil
}

// BuildReport is the single entry point combining both views. It
// clusters the snapshot once and feeds the shared cluster set to both
// detectors; a merchant may legitimately appear in both outputs.
func BuildReport(txns []model.Transaction, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cs := BuildClusters(txns, cfg.LookbackDays)
	subscriptions := detectSubscriptions(cs, cfg)
	merchants := rankFrequentMerchants(cs, cfg)

	var totalMonthly int64
	for _, s := range subscriptions {
		totalMonthly += s.MonthlyCost
	}

	return &Report{
		Subscriptions:     subscriptions,
		FrequentMerchants: merchants,
		TotalMonthlyCost:  totalMonthly,
		Analyzed:          cs.Analyzed,
		Skipped:           cs.Skipped,
	}, nil
}
