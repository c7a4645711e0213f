package core

import (
	"context"
	"strconv"
	"strings"
)

// Field names as stored and exported. They double as the normalized CSV
// header names accepted by bulk load.
const (
	FieldID                 = "ID"
	FieldAmmoType           = "Ammo_Type"
	FieldGaugeOrAmmoSize    = "Gauge_or_Ammo_Size"
	FieldBrand              = "Brand"
	FieldSlugSize           = "Slug_Size"
	FieldQuantityBox        = "Quantity_Box"
	FieldQuantityLoose      = "Quantity_Loose"
	FieldQuantityInMagazine = "Quantity_in_Magazine"
	FieldTypeName           = "Type"
	FieldGrain              = "Grain"
	FieldFirearmType        = "Firearm_Type"
	FieldDateEntered        = "Date_Entered"
)

// Columns is the fixed display and export order, identifier first.
var Columns = []string{
	FieldID,
	FieldAmmoType,
	FieldGaugeOrAmmoSize,
	FieldBrand,
	FieldSlugSize,
	FieldQuantityBox,
	FieldQuantityLoose,
	FieldQuantityInMagazine,
	FieldTypeName,
	FieldGrain,
	FieldFirearmType,
	FieldDateEntered,
}

// Record is one ammunition inventory entry.
// ID is assigned by the store and is zero until the record is inserted.
type Record struct {
	ID                 int64  `db:"ID" json:"ID"`
	AmmoType           string `db:"Ammo_Type" json:"Ammo_Type"`
	GaugeOrAmmoSize    string `db:"Gauge_or_Ammo_Size" json:"Gauge_or_Ammo_Size"`
	Brand              string `db:"Brand" json:"Brand"`
	SlugSize           string `db:"Slug_Size" json:"Slug_Size"`
	QuantityBox        int    `db:"Quantity_Box" json:"Quantity_Box"`
	QuantityLoose      int    `db:"Quantity_Loose" json:"Quantity_Loose"`
	QuantityInMagazine int    `db:"Quantity_in_Magazine" json:"Quantity_in_Magazine"`
	Type               string `db:"Type" json:"Type"`
	Grain              string `db:"Grain" json:"Grain"`
	FirearmType        string `db:"Firearm_Type" json:"Firearm_Type"`
	DateEntered        string `db:"Date_Entered" json:"Date_Entered"`
}

// Values returns the record's fields as strings in [Columns] order.
func (r Record) Values() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.AmmoType,
		r.GaugeOrAmmoSize,
		r.Brand,
		r.SlugSize,
		strconv.Itoa(r.QuantityBox),
		strconv.Itoa(r.QuantityLoose),
		strconv.Itoa(r.QuantityInMagazine),
		r.Type,
		r.Grain,
		r.FirearmType,
		r.DateEntered,
	}
}

// setText assigns a text field by name. Unknown or numeric names are ignored.
func (r *Record) setText(field, value string) {
	switch field {
	case FieldAmmoType:
		r.AmmoType = value
	case FieldGaugeOrAmmoSize:
		r.GaugeOrAmmoSize = value
	case FieldBrand:
		r.Brand = value
	case FieldSlugSize:
		r.SlugSize = value
	case FieldTypeName:
		r.Type = value
	case FieldGrain:
		r.Grain = value
	case FieldFirearmType:
		r.FirearmType = value
	case FieldDateEntered:
		r.DateEntered = value
	}
}

// setQuantity assigns a quantity field by name.
func (r *Record) setQuantity(field string, value int) {
	switch field {
	case FieldQuantityBox:
		r.QuantityBox = value
	case FieldQuantityLoose:
		r.QuantityLoose = value
	case FieldQuantityInMagazine:
		r.QuantityInMagazine = value
	}
}

// FieldType represents the expected data type for a record field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
)

// FieldSpec describes one data field of a record.
type FieldSpec struct {
	Name  string    // Stored column name, e.g. "Quantity_Box"
	Label string    // Form label, e.g. "Quantity Box"
	Type  FieldType // Expected data type
}

// FieldSpecs lists the eleven data fields in column order. ID is excluded;
// it is never supplied by a caller.
var FieldSpecs = []FieldSpec{
	{Name: FieldAmmoType, Label: "Ammo Type", Type: FieldText},
	{Name: FieldGaugeOrAmmoSize, Label: "Gauge or Ammo Size", Type: FieldText},
	{Name: FieldBrand, Label: "Brand", Type: FieldText},
	{Name: FieldSlugSize, Label: "Slug Size", Type: FieldText},
	{Name: FieldQuantityBox, Label: "Quantity Box", Type: FieldInteger},
	{Name: FieldQuantityLoose, Label: "Quantity Loose", Type: FieldInteger},
	{Name: FieldQuantityInMagazine, Label: "Quantity in Magazine", Type: FieldInteger},
	{Name: FieldTypeName, Label: "Type", Type: FieldText},
	{Name: FieldGrain, Label: "Grain", Type: FieldText},
	{Name: FieldFirearmType, Label: "Firearm Type", Type: FieldText},
	{Name: FieldDateEntered, Label: "Date Entered", Type: FieldText},
}

// DataColumns returns the eleven data column names in order.
func DataColumns() []string {
	cols := make([]string, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		cols[i] = spec.Name
	}
	return cols
}

// LookupField finds a field spec by stored name or form label.
// Matching ignores case and treats spaces like underscores.
func LookupField(name string) (FieldSpec, bool) {
	key := NormalizeHeader(name)
	for _, spec := range FieldSpecs {
		if strings.EqualFold(spec.Name, key) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Store is the persistence boundary for records.
// Implementations live in internal/store.
type Store interface {
	// EnsureSchema creates the table if it does not exist. Existing rows
	// are left untouched.
	EnsureSchema(ctx context.Context) error

	// ResetSchema drops and recreates the table, discarding every row.
	ResetSchema(ctx context.Context) error

	// InsertRecords writes all records in a single transaction.
	InsertRecords(ctx context.Context, records []Record) error

	// InsertRecord writes one record and returns its assigned ID.
	InsertRecord(ctx context.Context, rec Record) (int64, error)

	// Records returns every row in ID order.
	Records(ctx context.Context) ([]Record, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// Opener acquires a store for the duration of one operation.
// The caller must Close the returned store.
type Opener func(ctx context.Context) (Store, error)
