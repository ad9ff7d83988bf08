package analysis

import "sort"

// rankFrequentMerchants orders clusters by how often the account
// transacts with them, independent of periodicity. Spend totals use
// absolute amounts so refunds still count as activity.
func rankFrequentMerchants(cs ClusterSet, cfg Config) []FrequentMerchant {
	var ranked []FrequentMerchant

	for _, key := range cs.sortedKeys() {
		cluster := cs.Clusters[key]
		if len(cluster.Members) < cfg.MinTransactions {
			continue
		}

		var total int64
		for _, m := range cluster.Members {
			amount := m.Amount
			if amount < 0 {
				amount = -amount
			}
			total += amount
		}

		count := len(cluster.Members)
		ranked = append(ranked, FrequentMerchant{
			Merchant:     cluster.DisplayName,
			Key:          cluster.Key,
			Count:        count,
			TotalSpend:   total,
			AverageSpend: total / int64(count),
			Currency:     cluster.Currency,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.TotalSpend != b.TotalSpend {
			return a.TotalSpend > b.TotalSpend
		}
		return a.Key < b.Key
	})

	if cfg.TopK > 0 && len(ranked) > cfg.TopK {
		ranked = ranked[:cfg.TopK]
	}

	return ranked
}
