package ingest

import (
	"strings"

	"github.com/hyunsoolee/aptpulse/pkg/db/models"
)

// The dedup-merge treats a row as a duplicate when every aligned column
// matches. Keys are built only from columns both sides share: the
// synthetic row ID and created_at timestamp the store adds are excluded,
// mirroring the column-alignment step that restricts stored rows to the
// API result's column set.

const keySep = "\x1f"

// pureNewRows returns the API rows that have no duplicate anywhere in
// the combined (api + existing) multiset. A row duplicated inside the
// API result itself is also dropped; a stored row absent from the API
// result is never re-appended.
func pureNewRows[T any](apiRows, existing []T, key func(T) string) []T {
	counts := make(map[string]int, len(apiRows)+len(existing))
	for _, row := range apiRows {
		counts[key(row)]++
	}
	for _, row := range existing {
		counts[key(row)]++
	}

	var fresh []T
	for _, row := range apiRows {
		if counts[key(row)] == 1 {
			fresh = append(fresh, row)
		}
	}
	return fresh
}

func saleKey(row models.RawSaleDeal) string {
	return strings.Join([]string{
		strings.TrimSpace(row.CollectedMonth),
		strings.TrimSpace(row.DistrictCode),
		strings.TrimSpace(row.DistrictName),
		strings.TrimSpace(row.NeighborhoodCode),
		strings.TrimSpace(row.NeighborhoodName),
		strings.TrimSpace(row.Parcel),
		strings.TrimSpace(row.ComplexName),
		canonicalNumber(row.ExclusiveArea),
		canonicalNumber(row.DealYear),
		canonicalNumber(row.DealMonth),
		canonicalNumber(row.DealDay),
		canonicalNumber(row.Floor),
		canonicalNumber(row.BuildYear),
		canonicalAmount(row.DealAmount),
	}, keySep)
}

func leaseKey(row models.RawLeaseDeal) string {
	return strings.Join([]string{
		strings.TrimSpace(row.CollectedMonth),
		strings.TrimSpace(row.DistrictCode),
		strings.TrimSpace(row.DistrictName),
		strings.TrimSpace(row.NeighborhoodCode),
		strings.TrimSpace(row.NeighborhoodName),
		strings.TrimSpace(row.Parcel),
		strings.TrimSpace(row.ComplexName),
		canonicalNumber(row.ExclusiveArea),
		canonicalNumber(row.DealYear),
		canonicalNumber(row.DealMonth),
		canonicalNumber(row.DealDay),
		canonicalNumber(row.Floor),
		canonicalNumber(row.BuildYear),
		canonicalAmount(row.Deposit),
		canonicalAmount(row.MonthlyRent),
		strings.TrimSpace(row.ContractTerm),
	}, keySep)
}

// canonicalNumber aligns numeric representations so that a stored value
// round-tripped through a different column type still matches its API
// twin: "123", "123.0" and " 123 " all map to "123".
func canonicalNumber(value string) string {
	s := strings.TrimSpace(value)
	if !looksNumeric(s) {
		return s
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" {
		return "0"
	}
	return s
}

// canonicalAmount additionally strips thousands separators, since deal
// amounts arrive comma-formatted.
func canonicalAmount(value string) string {
	return canonicalNumber(strings.ReplaceAll(value, ",", ""))
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	dots, digits := 0, 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' && i == 0:
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}
