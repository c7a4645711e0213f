package core

// coerce.go converts textual quantity cells to integers.
//
// Quantities are whole, non-negative counts. ParseQuantity accepts the shapes
// spreadsheets commonly produce (" 12 ", "+12", "1,200", ="12") and rejects
// everything else. What happens on rejection is decided by a CoercionPolicy.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CoercionPolicy decides what happens to an absent or invalid quantity
// during file ingestion.
type CoercionPolicy string

const (
	// CoerceLenient substitutes 0 and keeps the row.
	CoerceLenient CoercionPolicy = "lenient"

	// CoerceStrict fails the whole load on the first bad value.
	CoerceStrict CoercionPolicy = "strict"
)

// DefaultCoercion is the policy used when none is configured.
const DefaultCoercion = CoerceLenient

// ParseCoercionPolicy parses a policy name, case-insensitively.
func ParseCoercionPolicy(s string) (CoercionPolicy, error) {
	switch CoercionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case CoerceLenient:
		return CoerceLenient, nil
	case CoerceStrict:
		return CoerceStrict, nil
	case "":
		return DefaultCoercion, nil
	default:
		return "", fmt.Errorf("unknown coercion policy %q: must be lenient or strict", s)
	}
}

// Messages used by quantity validation. MapError keys on them.
const (
	msgRequired       = "is required"
	msgNotWholeNumber = "must be a whole number"
	msgNegative       = "must not be negative"
)

var (
	errQuantityEmpty    = errors.New(msgRequired)
	errQuantityNotInt   = errors.New(msgNotWholeNumber)
	errQuantityNegative = errors.New(msgNegative)
)

// ParseQuantity converts a quantity cell to a non-negative integer.
func ParseQuantity(raw string) (int, error) {
	s := CleanCell(raw)
	if s == "" {
		return 0, errQuantityEmpty
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errQuantityNotInt
	}
	if n < 0 {
		return 0, errQuantityNegative
	}
	return n, nil
}

// Quantity coerces one cell under the policy. present is false when the
// column or cell is absent. The second result reports whether a default
// was substituted.
func (p CoercionPolicy) Quantity(field, raw string, present bool) (int, bool, error) {
	if !present {
		raw = ""
	}

	n, err := ParseQuantity(raw)
	if err == nil {
		return n, false, nil
	}

	if p == CoerceStrict {
		return 0, false, ValidationError{
			Field:   field,
			Value:   raw,
			Message: err.Error(),
		}
	}
	return 0, true, nil
}
