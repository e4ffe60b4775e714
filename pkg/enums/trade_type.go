package enums

import "fmt"

// TradeType selects which transaction feed the pipeline ingests. The
// lease feed combines jeonse and monthly-rent contracts in one dataset;
// they are only split apart during feature building.
type TradeType string

const (
	TradeTypeSale  TradeType = "sale"
	TradeTypeLease TradeType = "lease"
)

var validTradeTypes = []TradeType{
	TradeTypeSale,
	TradeTypeLease,
}

// String implements fmt.Stringer.
func (t TradeType) String() string {
	return string(t)
}

// IsValid reports whether the trade type is recognized.
func (t TradeType) IsValid() bool {
	for _, candidate := range validTradeTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTradeType converts a raw string into a TradeType.
func ParseTradeType(value string) (TradeType, error) {
	for _, candidate := range validTradeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trade type %q", value)
}
