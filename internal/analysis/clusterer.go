package analysis

import (
	"sort"
	"time"

	"github.com/hmoss/pocketwatch/internal/model"
)

// Member is one transaction inside a cluster, with its timestamp and
// amount already parsed.
type Member struct {
	Transaction model.Transaction
	Time        time.Time
	Amount      int64
}

// Cluster is the set of transactions sharing a normalized merchant key,
// ordered ascending by timestamp.
type Cluster struct {
	Key         string
	DisplayName string
	Currency    string
	Members     []Member
}

// ClusterSet is the result of grouping a snapshot, plus the count of
// records dropped because their timestamp or amount would not parse.
type ClusterSet struct {
	Clusters map[string]*Cluster
	Analyzed int
	Skipped  int
}

// sortedKeys returns the cluster keys in lexical order so every
// iteration over the set is deterministic.
func (cs ClusterSet) sortedKeys() []string {
	keys := make([]string, 0, len(cs.Clusters))
	for k := range cs.Clusters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawDescription is the string fed to the normalizer: the expanded
// merchant name when present, else the free-text description. Unlike
// Transaction.MerchantName it has no display fallback, so an empty
// result correctly triggers the counterparty-id fallback inside
// Normalize.
func rawDescription(txn model.Transaction) string {
	if txn.Merchant != nil && txn.Merchant.Name != "" {
		return txn.Merchant.Name
	}
	return txn.Description
}

// BuildClusters groups a transaction snapshot by normalized merchant key
// within a trailing window of lookbackDays, anchored at the most recent
// parseable transaction. Malformed records are counted and dropped, never
// fatal.
func BuildClusters(txns []model.Transaction, lookbackDays int) ClusterSet {
	cs := ClusterSet{Clusters: make(map[string]*Cluster)}

	members := make([]Member, 0, len(txns))
	var latest time.Time
	for _, txn := range txns {
		ts, err := txn.Timestamp()
		if err != nil {
			cs.Skipped++
			continue
		}
		amount, err := txn.MinorUnits()
		if err != nil {
			cs.Skipped++
			continue
		}
		if ts.After(latest) {
			latest = ts
		}
		members = append(members, Member{Transaction: txn, Time: ts.UTC(), Amount: amount})
	}

	if len(members) == 0 {
		return cs
	}

	cutoff := latest.UTC().AddDate(0, 0, -lookbackDays)
	for _, m := range members {
		if m.Time.Before(cutoff) {
			continue
		}
		key := Normalize(rawDescription(m.Transaction), m.Transaction.CounterpartyID())
		cluster, ok := cs.Clusters[key]
		if !ok {
			cluster = &Cluster{Key: key}
			cs.Clusters[key] = cluster
		}
		cluster.Members = append(cluster.Members, m)
		cs.Analyzed++
	}

	for _, cluster := range cs.Clusters {
		sort.SliceStable(cluster.Members, func(i, j int) bool {
			a, b := cluster.Members[i], cluster.Members[j]
			if !a.Time.Equal(b.Time) {
				return a.Time.Before(b.Time)
			}
			return a.Transaction.ID < b.Transaction.ID
		})
		// Name and currency come from the most recent member so renamed
		// merchants show their current branding.
		last := cluster.Members[len(cluster.Members)-1]
		cluster.DisplayName = last.Transaction.MerchantName()
		cluster.Currency = last.Transaction.Currency
	}

	return cs
}
