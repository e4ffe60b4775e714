package features

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Square meters per pyeong, the per-area pricing unit used by the
// Korean market.
const sqmPerPyeong = 3.3058

// parseAmount reads a comma-formatted money string ("50,000") as a
// float. Returns nil when the value is missing or malformed.
func parseAmount(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseInt accepts integer-looking strings including the "7.0" form the
// API produces for whole numbers.
func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	v := int(*f)
	if float64(v) != *f {
		return nil
	}
	return &v
}

// dealDate assembles a calendar date from the raw year/month/day
// strings. Invalid combinations (month 13, day 32) yield nil.
func dealDate(year, month, day string) *time.Time {
	y, m, d := parseInt(year), parseInt(month), parseInt(day)
	if y == nil || m == nil || d == nil {
		return nil
	}
	if *m < 1 || *m > 12 || *d < 1 || *d > 31 {
		return nil
	}
	t := time.Date(*y, time.Month(*m), *d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if t.Year() != *y || t.Month() != time.Month(*m) || t.Day() != *d {
		return nil
	}
	return &t
}

// parseContractTerm splits the government's "YY.MM~YY.MM" lease-term
// string into start and end dates, each anchored to the first of the
// month. Either half may come back nil when unparseable.
func parseContractTerm(term string) (start, end *time.Time) {
	parts := strings.Split(strings.TrimSpace(term), "~")
	if len(parts) != 2 {
		return nil, nil
	}
	return parseTermHalf(parts[0]), parseTermHalf(parts[1])
}

func parseTermHalf(half string) *time.Time {
	half = strings.TrimSpace(half)
	ym := "20" + strings.ReplaceAll(half, ".", "-")
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return nil
	}
	return &t
}

// pricePerPyeong divides an amount by the pyeong-converted area,
// guarding the zero-area case the upstream drops should already have
// removed.
func pricePerPyeong(amount, area float64) (float64, bool) {
	if area <= 0 {
		return 0, false
	}
	return amount / (area / sqmPerPyeong), true
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
