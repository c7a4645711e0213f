package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/ammo/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// DefaultImportTimeout is the maximum duration for a bulk load.
const DefaultImportTimeout = 5 * time.Minute

// DefaultResetTimeout is the maximum duration for a reset.
const DefaultResetTimeout = 30 * time.Second

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Coercion             CoercionPolicy // Quantity policy for file ingestion
	MaxFileSize          int64          // Bytes; 0 disables the check
	ImportTimeout        time.Duration
	ResetTimeout         time.Duration
	MaxConcurrentImports int
	ImportWait           time.Duration
}

// Service provides every inventory operation.
// It holds no open store between calls: each operation acquires a store
// through the Opener and releases it before returning.
type Service struct {
	open    Opener
	opts    Options
	limiter *ImportLimiter
}

// NewService creates a Service over the given store opener.
func NewService(open Opener, opts Options) *Service {
	if opts.Coercion == "" {
		opts.Coercion = DefaultCoercion
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = DefaultImportTimeout
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = DefaultResetTimeout
	}
	return &Service{
		open:    open,
		opts:    opts,
		limiter: NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
	}
}

// Coercion returns the configured ingestion policy.
func (s *Service) Coercion() CoercionPolicy {
	return s.opts.Coercion
}

// ActiveImports returns the number of bulk loads in progress.
func (s *Service) ActiveImports() int {
	return s.limiter.Active()
}

// WaitForImports blocks until running bulk loads finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// withStore opens a store, runs fn and always closes the store.
func (s *Service) withStore(ctx context.Context, op string, fn func(Store) error) (err error) {
	st, err := s.open(ctx)
	if err != nil {
		return storeErr("open", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.FromContext(ctx).Warn("store close failed", "op", op, "error", cerr)
			if err == nil {
				err = storeErr("close", cerr)
			}
		}
	}()

	return storeErr(op, fn(st))
}

// Initialize creates the inventory table if it does not exist.
// Existing records are kept; use Reset to start over.
func (s *Service) Initialize(ctx context.Context) error {
	return s.withStore(ctx, "initialize", func(st Store) error {
		return st.EnsureSchema(ctx)
	})
}

// Reset drops and recreates the inventory table, discarding every record.
func (s *Service) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ResetTimeout)
	defer cancel()

	var before int64
	err := s.withStore(ctx, "reset", func(st Store) error {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		n, err := st.Count(ctx)
		if err != nil {
			return err
		}
		before = n
		return st.ResetSchema(ctx)
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Warn("inventory reset", "rows_discarded", before)
	return nil
}

// LoadResult summarizes one bulk load.
type LoadResult struct {
	LoadID    string        `json:"loadId"`
	FileName  string        `json:"fileName"`
	Rows      int           `json:"rows"`
	Inserted  int           `json:"inserted"`
	Defaulted int           `json:"defaulted"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
}

// BulkLoad reads a CSV file from disk and inserts one record per row.
func (s *Service) BulkLoad(ctx context.Context, path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "open", Err: err}
	}
	if info.IsDir() {
		return nil, &FileError{Path: path, Op: "open", Err: fmt.Errorf("is a directory")}
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		return nil, &FileError{Path: path, Op: "open", Err: ErrFileTooLarge}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	return s.BulkLoadReader(ctx, filepath.Base(path), f)
}

// BulkLoadReader parses CSV data from r and inserts it.
//
// The input is parsed completely before anything is written and then
// inserted in one transaction, so any error leaves the store unchanged.
// name is used for logging and error messages only.
func (s *Service) BulkLoadReader(ctx context.Context, name string, r io.Reader) (*LoadResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ImportTimeout)
	defer cancel()

	start := time.Now()
	result := &LoadResult{
		LoadID:   uuid.New().String(),
		FileName: name,
	}
	logger := logging.WithFields(ctx, "load_id", result.LoadID, "file", name)
	logger.Info("bulk load started", "coercion", s.opts.Coercion)

	if s.opts.MaxFileSize > 0 {
		r = &sizeLimitReader{r: r, remaining: s.opts.MaxFileSize}
	}
	decoded, counter := WrapForIngest(r)

	parsed, err := ReadRecords(decoded, s.opts.Coercion)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.File == "" {
			pe.File = name
		}
		var fe *FileError
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = name
		}
		logger.Warn("bulk load rejected", "error", err)
		return nil, err
	}

	err = s.withStore(ctx, "bulk load", func(st Store) error {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		return st.InsertRecords(ctx, parsed.Records)
	})
	if err != nil {
		logger.Error("bulk load failed", "error", err)
		return nil, err
	}

	result.Rows = parsed.Rows
	result.Inserted = len(parsed.Records)
	result.Defaulted = parsed.Defaulted
	result.Bytes = counter.BytesRead
	result.Duration = time.Since(start)

	logger.Info("bulk load completed",
		"rows", result.Rows,
		"inserted", result.Inserted,
		"defaulted", result.Defaulted,
		"bytes", result.Bytes,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// FetchAll returns every record in insertion order. A store that was
// never initialized reads as empty.
func (s *Service) FetchAll(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.withStore(ctx, "fetch", func(st Store) error {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		var err error
		records, err = st.Records(ctx)
		return err
	})
	return records, err
}

// Count returns the number of records.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.withStore(ctx, "count", func(st Store) error {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		var err error
		n, err = st.Count(ctx)
		return err
	})
	return n, err
}

// InsertOne validates and inserts a single record. On success the returned
// record carries its assigned ID. Nothing is written when validation fails.
func (s *Service) InsertOne(ctx context.Context, rec Record) (Record, error) {
	if err := ValidateRecord(rec); err != nil {
		return Record{}, err
	}
	rec.ID = 0

	err := s.withStore(ctx, "insert", func(st Store) error {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		id, err := st.InsertRecord(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		return Record{}, err
	}

	logging.FromContext(ctx).Info("record added", "id", rec.ID, "type", rec.Type)
	return rec, nil
}

// AddFromForm parses string input strictly and inserts the result.
// See ParseRecordForm for the accepted keys.
func (s *Service) AddFromForm(ctx context.Context, fields map[string]string) (Record, error) {
	rec, err := ParseRecordForm(fields)
	if err != nil {
		return Record{}, err
	}
	return s.InsertOne(ctx, rec)
}

// NoResultsMessage is shown when a type search matches nothing.
const NoResultsMessage = "No items match your search."

// SearchByType returns the records whose Type contains term, ignoring case.
// Order is preserved. No match is not an error.
func (s *Service) SearchByType(ctx context.Context, term string) ([]Record, error) {
	records, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByType(records, term), nil
}

// FilterByType keeps the records whose Type contains term under Unicode
// case folding. An empty term matches every record.
func FilterByType(records []Record, term string) []Record {
	fold := cases.Fold()
	needle := fold.String(term)

	matches := make([]Record, 0)
	for _, rec := range records {
		if strings.Contains(fold.String(rec.Type), needle) {
			matches = append(matches, rec)
		}
	}
	return matches
}

// ExportTo writes every record to w as CSV and returns the record count.
func (s *Service) ExportTo(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.FetchAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ExportToFile writes every record to path, replacing any existing file.
func (s *Service) ExportToFile(ctx context.Context, path string) (int, error) {
	records, err := s.FetchAll(ctx)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, &FileError{Path: path, Op: "write", Err: err}
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return 0, &FileError{Path: path, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return 0, &FileError{Path: path, Op: "write", Err: err}
	}

	logging.FromContext(ctx).Info("inventory exported", "path", path, "records", len(records))
	return len(records), nil
}

// sizeLimitReader fails with ErrFileTooLarge once more than remaining
// bytes are available.
type sizeLimitReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			return 0, ErrFileTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
