package scan

import (
	"context"
	"sort"
)

// Query selects persisted results newest first.
type Query struct {
	// Limit truncates the result set; zero or negative means no truncation.
	Limit int
	// Domain is a case-insensitive substring matched against the stored URL.
	Domain string
}

// Repository defines the append-only scan log.
type Repository interface {
	// Append persists a result. The caller decides what to do with the error;
	// a failed append never invalidates the scan itself.
	Append(ctx context.Context, result *Result) error

	// Query returns results ordered by scan timestamp, newest first.
	Query(ctx context.Context, q Query) ([]*Result, error)

	// Close releases resources held by the store.
	Close() error
}

// Apply filters, orders and truncates results in memory. Stores without a
// query engine use it so every backend agrees on ordering.
func (q Query) Apply(results []*Result) []*Result {
	filtered := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil && r.MatchesDomain(q.Domain) {
			filtered = append(filtered, r)
		}
	}

	// Stable so records sharing a timestamp keep newest-appended first.
	reversed := make([]*Result, len(filtered))
	for i, r := range filtered {
		reversed[len(filtered)-1-i] = r
	}
	sort.SliceStable(reversed, func(i, j int) bool {
		return reversed[i].ScanTimestamp > reversed[j].ScanTimestamp
	})

	if q.Limit > 0 && len(reversed) > q.Limit {
		reversed = reversed[:q.Limit]
	}
	return reversed
}
