package core

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is shared by every handle the fake opener returns, so it
// behaves like a file that outlives each operation.
type fakeBackend struct {
	mu      sync.Mutex
	records []Record
	nextID  int64
	opens   int
	closes  int
	openErr error
	failOp  map[string]error
	schema  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1, failOp: map[string]error{}}
}

func (b *fakeBackend) opener() Opener {
	return func(ctx context.Context) (Store, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.openErr != nil {
			return nil, b.openErr
		}
		b.opens++
		return &fakeHandle{b: b}, nil
	}
}

type fakeHandle struct{ b *fakeBackend }

func (h *fakeHandle) fail(op string) error {
	if err := h.b.failOp[op]; err != nil {
		return err
	}
	if op != "ensure" && op != "reset" && !h.b.schema {
		return errors.New("no such table: inventory")
	}
	return nil
}

func (h *fakeHandle) EnsureSchema(ctx context.Context) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	if err := h.fail("ensure"); err != nil {
		return err
	}
	h.b.schema = true
	return nil
}

func (h *fakeHandle) ResetSchema(ctx context.Context) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	if err := h.fail("reset"); err != nil {
		return err
	}
	h.b.records = nil
	h.b.nextID = 1
	h.b.schema = true
	return nil
}

func (h *fakeHandle) InsertRecords(ctx context.Context, records []Record) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	if err := h.fail("insert"); err != nil {
		return err
	}
	for _, rec := range records {
		rec.ID = h.b.nextID
		h.b.nextID++
		h.b.records = append(h.b.records, rec)
	}
	return nil
}

func (h *fakeHandle) InsertRecord(ctx context.Context, rec Record) (int64, error) {
	if err := h.InsertRecords(ctx, []Record{rec}); err != nil {
		return 0, err
	}
	return h.b.nextID - 1, nil
}

func (h *fakeHandle) Records(ctx context.Context) ([]Record, error) {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	if err := h.fail("records"); err != nil {
		return nil, err
	}
	out := make([]Record, len(h.b.records))
	copy(out, h.b.records)
	return out, nil
}

func (h *fakeHandle) Count(ctx context.Context) (int64, error) {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	if err := h.fail("count"); err != nil {
		return 0, err
	}
	return int64(len(h.b.records)), nil
}

func (h *fakeHandle) Close() error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	h.b.closes++
	return nil
}

func newTestService(t *testing.T, opts Options) (*Service, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	svc := NewService(b.opener(), opts)
	require.NoError(t, svc.Initialize(context.Background()))
	return svc, b
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const inventoryCSV = "Ammo Type,Gauge or Ammo Size,Brand,Slug Size,Quantity Box,Quantity Loose,Quantity in Magazine,Type,Grain,Firearm Type,Date Entered\n" +
	"Shotgun,12,Federal,,2,10,0,Buckshot,,Pump,2024-03-01\n" +
	"Shotgun,12,Remington,1 oz,1,,0,Slug,,Pump,2024-03-01\n" +
	"Rifle,.308,Hornady,,3,abc,4,ELD-X,178,Bolt,2024-03-02\n"

func TestService_BulkLoad(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	path := writeFile(t, "inventory.csv", inventoryCSV)

	result, err := svc.BulkLoad(ctx, path)
	require.NoError(t, err)

	assert.NotEmpty(t, result.LoadID)
	assert.Equal(t, "inventory.csv", result.FileName)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 2, result.Defaulted)
	assert.Equal(t, int64(len(inventoryCSV)), result.Bytes)

	records, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, "Buckshot", records[0].Type)
	assert.Equal(t, 10, records[0].QuantityLoose)
	assert.Equal(t, 0, records[1].QuantityLoose, "blank quantity defaults to 0")
	assert.Equal(t, 0, records[2].QuantityLoose, "non-numeric quantity defaults to 0")
	assert.Equal(t, 4, records[2].QuantityInMagazine)
}

func TestService_BulkLoadStrictIsAtomic(t *testing.T) {
	svc, _ := newTestService(t, Options{Coercion: CoerceStrict})
	ctx := context.Background()
	path := writeFile(t, "inventory.csv", inventoryCSV)

	_, err := svc.BulkLoad(ctx, path)
	require.ErrorIs(t, err, ErrValidation)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "no rows written when any row is rejected")
}

func TestService_BulkLoadFileErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		svc, _ := newTestService(t, Options{})
		_, err := svc.BulkLoad(ctx, filepath.Join(t.TempDir(), "absent.csv"))
		require.ErrorIs(t, err, ErrFile)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		svc, _ := newTestService(t, Options{})
		_, err := svc.BulkLoad(ctx, t.TempDir())
		require.ErrorIs(t, err, ErrFile)
	})

	t.Run("too large on disk", func(t *testing.T) {
		svc, _ := newTestService(t, Options{MaxFileSize: 10})
		_, err := svc.BulkLoad(ctx, writeFile(t, "big.csv", inventoryCSV))
		require.ErrorIs(t, err, ErrFile)
		assert.Equal(t, "FILE003", MapError(err).Code)
	})

	t.Run("too large stream", func(t *testing.T) {
		svc, b := newTestService(t, Options{MaxFileSize: 10})
		_, err := svc.BulkLoadReader(ctx, "upload.csv", strings.NewReader(inventoryCSV))
		require.ErrorIs(t, err, ErrFile)
		assert.Equal(t, "FILE003", MapError(err).Code)
		assert.Empty(t, b.records)
	})

	t.Run("malformed csv names file", func(t *testing.T) {
		svc, b := newTestService(t, Options{})
		_, err := svc.BulkLoadReader(ctx, "bad.csv", strings.NewReader("Type\n\"FMJ\n"))
		require.ErrorIs(t, err, ErrParse)
		assert.Contains(t, err.Error(), "bad.csv")
		assert.Empty(t, b.records)
	})
}

func TestService_BulkLoadStoreFailure(t *testing.T) {
	svc, b := newTestService(t, Options{})
	b.failOp["insert"] = errors.New("database is locked")

	_, err := svc.BulkLoadReader(context.Background(), "x.csv", strings.NewReader(inventoryCSV))
	require.ErrorIs(t, err, ErrStore)
	assert.Equal(t, "STORE001", MapError(err).Code)
	assert.Equal(t, 0, svc.ActiveImports(), "slot released after failure")
}

func TestService_ResetDiscardsRecords(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.BulkLoadReader(ctx, "a.csv", strings.NewReader(inventoryCSV))
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// A second reset after new data again leaves zero rows.
	_, err = svc.InsertOne(ctx, Record{Type: "FMJ"})
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))
	n, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestService_InitializeKeepsRecords(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.InsertOne(ctx, Record{Type: "FMJ"})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(ctx))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_InsertOne(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	rec, err := svc.InsertOne(ctx, Record{ID: 99, Type: "Slug", QuantityBox: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID, "caller-supplied ID is ignored")

	_, err = svc.InsertOne(ctx, Record{Type: "Slug", QuantityBox: -1})
	require.ErrorIs(t, err, ErrValidation)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_AddFromFormRejectsNonNumeric(t *testing.T) {
	svc, b := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.AddFromForm(ctx, map[string]string{
		"Quantity_Box":         "abc",
		"Quantity_Loose":       "1",
		"Quantity_in_Magazine": "0",
		"Type":                 "Buckshot",
	})

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, map[string]string{FieldQuantityBox: msgNotWholeNumber}, errs.ByField())
	assert.Equal(t, 1, b.opens, "store not touched after validation failure")

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestService_AddFromForm(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	rec, err := svc.AddFromForm(context.Background(), map[string]string{
		"Ammo Type":            "Pistol",
		"Quantity Box":         "1",
		"Quantity Loose":       "0",
		"Quantity in Magazine": "15",
		"Type":                 "JHP",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, 15, rec.QuantityInMagazine)
}

func TestService_SearchByType(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	for _, typ := range []string{"Buckshot", "Slug"} {
		_, err := svc.InsertOne(ctx, Record{Type: typ})
		require.NoError(t, err)
	}

	got, err := svc.SearchByType(ctx, "duck")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.SearchByType(ctx, "shot")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Buckshot", got[0].Type)

	upper, err := svc.SearchByType(ctx, "BUCKSHOT")
	require.NoError(t, err)
	lower, err := svc.SearchByType(ctx, "buckshot")
	require.NoError(t, err)
	assert.Equal(t, upper, lower)
}

func TestFilterByType(t *testing.T) {
	records := []Record{
		{ID: 1, Type: "Buckshot"},
		{ID: 2, Type: "Slug"},
		{ID: 3, Type: "Birdshot"},
		{ID: 4, Type: "Éclair"},
	}

	tests := []struct {
		term string
		want []int64
	}{
		{"shot", []int64{1, 3}},
		{"SLUG", []int64{2}},
		{"", []int64{1, 2, 3, 4}},
		{"ÉCLAIR", []int64{4}},
		{"none", nil},
	}

	for _, tt := range tests {
		var ids []int64
		for _, rec := range FilterByType(records, tt.term) {
			ids = append(ids, rec.ID)
		}
		assert.Equal(t, tt.want, ids, "term %q", tt.term)
	}
}

func TestService_ExportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, Options{Coercion: CoerceStrict})
	ctx := context.Background()

	for _, rec := range exportFixture() {
		_, err := svc.InsertOne(ctx, rec)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	n, err := svc.ExportToFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(Columns, ",")+"\n"))

	before, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))

	_, err = svc.BulkLoad(ctx, path)
	require.NoError(t, err)
	after, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	for i := range before {
		before[i].ID, after[i].ID = 0, 0
	}
	assert.Equal(t, before, after)
}

func TestService_ExportTo(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	_, err := svc.InsertOne(ctx, Record{Type: "FMJ", QuantityBox: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := svc.ExportTo(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "1,,,,,1,0,0,FMJ,,,\n")
}

func TestService_ExportToFileUnwritable(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	_, err := svc.ExportToFile(context.Background(), filepath.Join(t.TempDir(), "missing", "out.csv"))
	require.ErrorIs(t, err, ErrFile)
}

func TestService_StoreScopedPerOperation(t *testing.T) {
	svc, b := newTestService(t, Options{})
	ctx := context.Background()

	_, _ = svc.FetchAll(ctx)
	_, _ = svc.InsertOne(ctx, Record{Type: "FMJ"})
	_, _ = svc.SearchByType(ctx, "f")
	b.failOp["records"] = errors.New("disk I/O error")
	_, err := svc.FetchAll(ctx)
	require.ErrorIs(t, err, ErrStore)

	assert.Equal(t, b.opens, b.closes, "every opened store is closed")
}

func TestService_ReadsCreateMissingSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch", func(t *testing.T) {
		svc := NewService(newFakeBackend().opener(), Options{})
		records, err := svc.FetchAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("count", func(t *testing.T) {
		svc := NewService(newFakeBackend().opener(), Options{})
		n, err := svc.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("search", func(t *testing.T) {
		svc := NewService(newFakeBackend().opener(), Options{})
		matches, err := svc.SearchByType(ctx, "buck")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("export", func(t *testing.T) {
		svc := NewService(newFakeBackend().opener(), Options{})
		var buf bytes.Buffer
		n, err := svc.ExportTo(ctx, &buf)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
	})

	t.Run("schema failure", func(t *testing.T) {
		b := newFakeBackend()
		b.failOp["ensure"] = errors.New("attempt to write a readonly database")
		_, err := NewService(b.opener(), Options{}).FetchAll(ctx)
		require.ErrorIs(t, err, ErrStore)
	})
}

func TestService_OpenFailure(t *testing.T) {
	b := newFakeBackend()
	b.openErr = errors.New("unable to open database file")
	svc := NewService(b.opener(), Options{})

	err := svc.Initialize(context.Background())
	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "open", se.Op)
	assert.Equal(t, "STORE003", MapError(err).Code)
}
