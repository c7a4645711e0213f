// Package ingest reads a CSV file into generic rows, converting a fixed
// set of numeric columns to integers.
//
// Unlike bulk load, it does not map rows onto inventory records: every
// column is kept under its header name exactly as written, and the numeric
// columns must be present verbatim. Quantity coercion follows the same
// core.CoercionPolicy as bulk load.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/ammo/internal/core"
)

// DefaultNumericColumns are converted to integers unless Options says
// otherwise. Names are matched exactly, case included.
var DefaultNumericColumns = []string{"quantity boxed", "quantity loose", "Quantity in Box"}

// Options controls parsing.
type Options struct {
	NumericColumns []string
	Policy         core.CoercionPolicy
}

// DefaultOptions returns the default numeric columns under policy.
func DefaultOptions(policy core.CoercionPolicy) Options {
	cols := make([]string, len(DefaultNumericColumns))
	copy(cols, DefaultNumericColumns)
	return Options{NumericColumns: cols, Policy: policy}
}

// Row maps a header name to its cell: a string, or an int for numeric
// columns.
type Row map[string]any

// Table is the parsed content of one file.
type Table struct {
	Header    []string
	Rows      []Row
	Defaulted int // numeric cells replaced by 0 under lenient coercion
}

// ParseFile reads the whole file at path and parses it.
// A missing or unreadable file is a core.FileError and no data is returned.
func ParseFile(path string, opts Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.FileError{Path: path, Op: "read", Err: err}
	}

	table, err := Parse(bytes.NewReader(data), opts)
	if err != nil {
		var pe *core.ParseError
		if errors.As(err, &pe) && pe.File == "" {
			pe.File = path
		}
		return nil, err
	}
	return table, nil
}

// Parse reads CSV from r. The first row is the header. Every numeric
// column must appear in the header; otherwise the result is a
// core.ParseError naming the first one missing. Under strict coercion the
// first bad numeric cell aborts the parse with a core.ValidationError.
func Parse(r io.Reader, opts Options) (*Table, error) {
	if opts.NumericColumns == nil {
		opts.NumericColumns = DefaultNumericColumns
	}
	if opts.Policy == "" {
		opts.Policy = core.DefaultCoercion
	}

	reader := csv.NewReader(core.DecodeUTF8(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.ParseError{Err: core.ErrEmptyFile}
	}
	if err != nil {
		return nil, core.WrapCSVError(err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[name] = i
	}

	numeric := make(map[string]bool, len(opts.NumericColumns))
	for _, name := range opts.NumericColumns {
		if _, ok := positions[name]; !ok {
			return nil, &core.ParseError{Line: 1, Column: name, Err: core.ErrMissingColumn}
		}
		numeric[name] = true
	}

	table := &Table{Header: header, Rows: []Row{}}
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapCSVError(err)
		}
		line, _ := reader.FieldPos(0)

		row := make(Row, len(positions))
		for pos, name := range header {
			if positions[name] != pos {
				continue // a later column with the same name wins
			}
			var raw string
			present := pos < len(cells)
			if present {
				raw = cells[pos]
			}

			if !numeric[name] {
				row[name] = raw
				continue
			}

			n, defaulted, err := opts.Policy.Quantity(name, raw, present)
			if err != nil {
				var ve core.ValidationError
				if errors.As(err, &ve) {
					ve.Line = line
					return nil, ve
				}
				return nil, err
			}
			if defaulted {
				table.Defaulted++
			}
			row[name] = n
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
