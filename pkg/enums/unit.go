package enums

import "fmt"

// Unit is the natural selling unit a cart line was transacted in. All
// inventory arithmetic is done in canonical kilograms regardless of unit.
type Unit string

const (
	UnitKG  Unit = "KG"
	UnitBAG Unit = "BAG"
	UnitPCS Unit = "PCS"
)

var validUnits = []Unit{UnitKG, UnitBAG, UnitPCS}

// IsValid reports whether the value matches a canonical selling unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnit converts raw input into Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}
