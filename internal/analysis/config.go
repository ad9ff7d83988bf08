// Package analysis detects recurring payments and ranks frequent
// merchants over a bounded snapshot of account transactions.
//
// The package is pure: it performs no I/O, keeps no state between calls,
// and produces deterministic output for a given snapshot and config, so
// it can be invoked concurrently without synchronization.
package analysis

import (
	"fmt"

	"github.com/hmoss/pocketwatch/internal/common"
)

// Period is a recurrence bucket a cluster can be classified into.
type Period string

// Recurrence buckets.
const (
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodAnnual    Period = "annual"
)

// bucketCenters maps each recurrence bucket to its center in days.
var bucketCenters = map[Period]int{
	PeriodWeekly:    7,
	PeriodMonthly:   30,
	PeriodQuarterly: 90,
	PeriodAnnual:    365,
}

// bucketOrder fixes the iteration order over buckets so ties between
// equally close centers resolve the same way every run.
var bucketOrder = []Period{PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodAnnual}

// defaultIntervalTolerances are the per-bucket interval tolerances in days.
var defaultIntervalTolerances = map[Period]int{
	PeriodWeekly:    2,
	PeriodMonthly:   4,
	PeriodQuarterly: 7,
	PeriodAnnual:    15,
}

// Config is the immutable parameter bundle consumed by every analysis
// call. The zero value is not usable; start from DefaultConfig.
type Config struct {
	// MinOccurrences is the minimum cluster size to attempt periodicity
	// classification.
	MinOccurrences int
	// MinTransactions is the minimum cluster size to appear in the
	// frequency ranking.
	MinTransactions int
	// AmountTolerancePct is the maximum relative amount dispersion
	// (stddev over mean) for a cluster to qualify as a subscription.
	AmountTolerancePct float64
	// IntervalTolerances overrides the per-bucket interval tolerance in
	// days. Buckets missing from the map use the defaults.
	IntervalTolerances map[Period]int
	// LookbackDays restricts clustering to a trailing window anchored at
	// the most recent transaction in the snapshot.
	LookbackDays int
	// TopK truncates the frequency ranking when positive; zero means
	// unbounded.
	TopK int
}

// DefaultConfig returns the default analysis parameters.
func DefaultConfig() Config {
	tolerances := make(map[Period]int, len(defaultIntervalTolerances))
	for p, tol := range defaultIntervalTolerances {
		tolerances[p] = tol
	}
	return Config{
		MinOccurrences:     2,
		MinTransactions:    2,
		AmountTolerancePct: 0.05,
		IntervalTolerances: tolerances,
		LookbackDays:       90,
		TopK:               0,
	}
}

// Validate checks the config for caller misuse. It runs before any
// transaction is touched, so a bad config fails the whole call up front.
func (c Config) Validate() error {
	if c.MinOccurrences < 1 {
		return fmt.Errorf("%w: min occurrences must be at least 1, got %d", common.ErrInvalidConfig, c.MinOccurrences)
	}
	if c.MinTransactions < 1 {
		return fmt.Errorf("%w: min transactions must be at least 1, got %d", common.ErrInvalidConfig, c.MinTransactions)
	}
	if c.AmountTolerancePct <= 0 || c.AmountTolerancePct >= 1.0 {
		return fmt.Errorf("%w: amount tolerance must be in (0, 1), got %v", common.ErrInvalidConfig, c.AmountTolerancePct)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback days must be positive, got %d", common.ErrInvalidConfig, c.LookbackDays)
	}
	if c.TopK < 0 {
		return fmt.Errorf("%w: top k must not be negative, got %d", common.ErrInvalidConfig, c.TopK)
	}
	for p, tol := range c.IntervalTolerances {
		if _, ok := bucketCenters[p]; !ok {
			return fmt.Errorf("%w: unknown recurrence bucket %q", common.ErrInvalidConfig, p)
		}
		if tol < 0 {
			return fmt.Errorf("%w: interval tolerance for %s must not be negative, got %d", common.ErrInvalidConfig, p, tol)
		}
	}
	return nil
}

// toleranceFor returns the interval tolerance for a bucket, falling back
// to the built-in default when the config does not override it.
func (c Config) toleranceFor(p Period) int {
	if tol, ok := c.IntervalTolerances[p]; ok {
		return tol
	}
	return defaultIntervalTolerances[p]
}
