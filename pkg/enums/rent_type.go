package enums

import "fmt"

// RentType classifies a lease contract. A contract with no recurring
// rent is jeonse (deposit-only).
type RentType string

const (
	RentTypeJeonse      RentType = "jeonse"
	RentTypeMonthlyRent RentType = "monthly_rent"
)

var validRentTypes = []RentType{
	RentTypeJeonse,
	RentTypeMonthlyRent,
}

// String implements fmt.Stringer.
func (r RentType) String() string {
	return string(r)
}

// IsValid reports whether the rent type is recognized.
func (r RentType) IsValid() bool {
	for _, candidate := range validRentTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRentType converts a raw string into a RentType.
func ParseRentType(value string) (RentType, error) {
	for _, candidate := range validRentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rent type %q", value)
}
