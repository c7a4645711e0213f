package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadResult holds the records parsed from one CSV input.
type ReadResult struct {
	Records   []Record
	Rows      int // Data rows read
	Defaulted int // Quantity cells replaced by 0 under lenient coercion
}

// ReadRecords parses CSV input into records.
//
// The first row is the header; names are normalized with NormalizeHeader
// and matched case-insensitively. Columns other than the eleven data
// fields (including ID) are ignored, absent text fields become "", and
// quantities are coerced with policy. A row of empty cells is kept and its
// quantities go through policy like any other. Input must already be
// decoded (see DecodeUTF8).
func ReadRecords(r io.Reader, policy CoercionPolicy) (*ReadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, WrapCSVError(err)
	}
	if IsBlankRow(header) {
		return nil, &ParseError{Line: 1, Err: ErrNoHeader}
	}

	idx := MakeHeaderIndex(header)
	result := &ReadResult{}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, WrapCSVError(err)
		}
		line, _ := reader.FieldPos(0)
		rec, defaulted, err := buildRecord(row, idx, policy)
		if err != nil {
			var ve ValidationError
			if errors.As(err, &ve) {
				ve.Line = line
				return nil, ve
			}
			return nil, err
		}

		result.Records = append(result.Records, rec)
		result.Rows++
		result.Defaulted += defaulted
	}

	return result, nil
}

// buildRecord maps one CSV row onto a record.
func buildRecord(row []string, idx HeaderIndex, policy CoercionPolicy) (Record, int, error) {
	var rec Record
	defaulted := 0

	for _, spec := range FieldSpecs {
		raw, present := idx.Cell(row, spec.Name)
		if spec.Type != FieldInteger {
			rec.setText(spec.Name, raw)
			continue
		}

		n, usedDefault, err := policy.Quantity(spec.Name, raw, present)
		if err != nil {
			return Record{}, 0, err
		}
		if usedDefault {
			defaulted++
		}
		rec.setQuantity(spec.Name, n)
	}

	return rec, defaulted, nil
}

// WrapCSVError categorizes an error from encoding/csv: size-limit failures
// become a FileError and everything else a ParseError.
func WrapCSVError(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return &FileError{Op: "read", Err: err}
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

// IsBlankRow reports whether every cell is empty or whitespace.
func IsBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes a header of [Columns] followed by one line per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			return fmt.Errorf("write record %d: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
