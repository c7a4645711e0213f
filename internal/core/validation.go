package core

// validation.go checks manually entered records before insertion.
//
// Manual entry is always strict: every quantity must be a whole,
// non-negative number, and all failures are reported together, one per
// field, so a form can highlight each of them. Nothing is inserted unless
// the whole input is valid.

import (
	"errors"
	"strconv"
)

// ParseRecordForm builds a record from string input keyed by field name or
// form label ("Quantity Box" and "Quantity_Box" are equivalent). Unknown
// keys are ignored and absent text fields are empty.
func ParseRecordForm(fields map[string]string) (Record, error) {
	values := make(map[string]string, len(fields))
	for key, value := range fields {
		spec, ok := LookupField(key)
		if !ok {
			continue
		}
		values[spec.Name] = value
	}

	var rec Record
	var errs ValidationErrors
	for _, spec := range FieldSpecs {
		raw, present := values[spec.Name]
		if spec.Type != FieldInteger {
			rec.setText(spec.Name, raw)
			continue
		}

		n, _, err := CoerceStrict.Quantity(spec.Name, raw, present)
		var ve ValidationError
		if errors.As(err, &ve) {
			errs = append(errs, ve)
			continue
		}
		rec.setQuantity(spec.Name, n)
	}

	if len(errs) > 0 {
		return Record{}, errs
	}
	return rec, nil
}

// ValidateRecord checks a typed record. Quantities must not be negative.
func ValidateRecord(rec Record) error {
	var errs ValidationErrors
	check := func(field string, n int) {
		if n < 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Value:   strconv.Itoa(n),
				Message: msgNegative,
			})
		}
	}
	check(FieldQuantityBox, rec.QuantityBox)
	check(FieldQuantityLoose, rec.QuantityLoose)
	check(FieldQuantityInMagazine, rec.QuantityInMagazine)

	if len(errs) > 0 {
		return errs
	}
	return nil
}
