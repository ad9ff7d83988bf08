package analysis

import (
	"math"
	"sort"
)

// interval weighting for the confidence score. Interval regularity says
// more about recurrence than amount regularity, so it carries more
// weight.
const (
	intervalWeight = 0.6
	amountWeight   = 0.4
)

// detectSubscriptions classifies clusters as periodic or not and scores
// confidence. Clusters below MinOccurrences, or with a single member, are
// skipped outright: an interval cannot be computed from one point.
func detectSubscriptions(cs ClusterSet, cfg Config) []SubscriptionCandidate {
	var candidates []SubscriptionCandidate

	for _, key := range cs.sortedKeys() {
		cluster := cs.Clusters[key]
		if len(cluster.Members) < cfg.MinOccurrences || len(cluster.Members) < 2 {
			continue
		}
		if c, ok := classifyCluster(cluster, cfg); ok {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.MonthlyCost != b.MonthlyCost {
			return a.MonthlyCost > b.MonthlyCost
		}
		return a.Key < b.Key
	})

	return candidates
}

// classifyCluster runs the full recurrence test on one cluster.
func classifyCluster(cluster *Cluster, cfg Config) (SubscriptionCandidate, bool) {
	members := cluster.Members

	// A recurring charge is uniformly one sign; mixed debits and credits
	// (or zero amounts) are something else.
	sign := int64(0)
	absAmounts := make([]float64, len(members))
	for i, m := range members {
		switch {
		case m.Amount == 0:
			return SubscriptionCandidate{}, false
		case sign == 0 && m.Amount > 0:
			sign = 1
		case sign == 0 && m.Amount < 0:
			sign = -1
		case sign > 0 && m.Amount < 0, sign < 0 && m.Amount > 0:
			return SubscriptionCandidate{}, false
		}
		absAmounts[i] = math.Abs(float64(m.Amount))
	}

	intervals := make([]float64, len(members)-1)
	for i := 1; i < len(members); i++ {
		days := members[i].Time.Sub(members[i-1].Time).Hours() / 24
		intervals[i-1] = math.Round(days)
	}
	medianInterval := median(intervals)

	period, ok := matchBucket(medianInterval, intervals, cfg)
	if !ok {
		return SubscriptionCandidate{}, false
	}

	meanAmount := mean(absAmounts)
	amountDispersion := stddev(absAmounts, meanAmount) / meanAmount
	if amountDispersion > cfg.AmountTolerancePct {
		return SubscriptionCandidate{}, false
	}

	tolerance := float64(cfg.toleranceFor(period))
	intervalSpread := stddev(intervals, mean(intervals))
	confidence := clamp01(intervalWeight*(1-normalizeDispersion(intervalSpread, tolerance)) +
		amountWeight*(1-normalizeDispersion(amountDispersion, cfg.AmountTolerancePct)))

	center := bucketCenters[period]
	last := members[len(members)-1].Time
	return SubscriptionCandidate{
		Merchant:     cluster.DisplayName,
		Key:          cluster.Key,
		Period:       period,
		Amount:       int64(math.Round(meanAmount)),
		MonthlyCost:  int64(math.Round(meanAmount * 30 / float64(center))),
		Currency:     cluster.Currency,
		Confidence:   confidence,
		LastCharge:   last,
		NextExpected: last.AddDate(0, 0, int(math.Round(medianInterval))),
		Occurrences:  len(members),
	}, true
}

// matchBucket assigns the recurrence bucket whose center is closest to
// the median interval, among buckets whose tolerance covers the median
// and is satisfied by enough of the individual intervals. No qualifying
// bucket means the cluster is not periodic.
func matchBucket(medianInterval float64, intervals []float64, cfg Config) (Period, bool) {
	required := cfg.MinOccurrences - 1
	if required < 1 {
		required = 1
	}

	var best Period
	bestDistance := math.Inf(1)
	found := false
	for _, p := range bucketOrder {
		center := float64(bucketCenters[p])
		tolerance := float64(cfg.toleranceFor(p))
		distance := math.Abs(medianInterval - center)
		if distance > tolerance {
			continue
		}
		within := 0
		for _, iv := range intervals {
			if math.Abs(iv-center) <= tolerance {
				within++
			}
		}
		if within < required {
			continue
		}
		if distance < bestDistance {
			best, bestDistance, found = p, distance, true
		}
	}
	return best, found
}

// normalizeDispersion maps a dispersion measure onto [0,1] relative to
// its tolerance threshold. The ramp is quadratic so a near-perfect
// series scores close to 1 while dispersion at the boundary contributes
// nothing.
func normalizeDispersion(dispersion, tolerance float64) float64 {
	if tolerance <= 0 {
		if dispersion > 0 {
			return 1
		}
		return 0
	}
	ratio := dispersion / tolerance
	if ratio >= 1 {
		return 1
	}
	return ratio * ratio
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
