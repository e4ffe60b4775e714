package ingest

import (
	"github.com/google/uuid"

	"github.com/hyunsoolee/aptpulse/pkg/enums"
)

// DistrictOutcome records what happened to one district during a
// reconciliation run: either the number of rows fetched, or the reason
// the district was skipped.
type DistrictOutcome struct {
	Code    string
	Name    string
	Rows    int
	Skipped bool
	Reason  string
}

// Report summarizes one reconciliation run. A run with zero appended
// rows is a successful no-op, not a failure.
type Report struct {
	RunID     uuid.UUID
	TradeType enums.TradeType
	Period    string
	Districts []DistrictOutcome

	Fetched  int
	Existing int
	Appended int

	// DistrictErrors aggregates the per-district failures that were
	// skipped; nil when every district fetch succeeded.
	DistrictErrors error
}

// SkippedDistricts counts how many districts failed and were skipped.
func (r *Report) SkippedDistricts() int {
	count := 0
	for _, d := range r.Districts {
		if d.Skipped {
			count++
		}
	}
	return count
}
