package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/ammo/internal/core"
)

// Memory keeps records in process memory. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records []core.Record
	nextID  int64
}

var _ core.Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// EnsureSchema is a no-op; the table always exists.
func (m *Memory) EnsureSchema(ctx context.Context) error {
	return ctx.Err()
}

// ResetSchema discards every record and restarts IDs at 1.
func (m *Memory) ResetSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.nextID = 1
	return nil
}

// InsertRecords appends all records.
func (m *Memory) InsertRecords(ctx context.Context, records []core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.appendLocked(rec)
	}
	return nil
}

// InsertRecord appends one record and returns its ID.
func (m *Memory) InsertRecord(ctx context.Context, rec core.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(rec), nil
}

func (m *Memory) appendLocked(rec core.Record) int64 {
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, rec)
	return rec.ID
}

// Records returns a copy of every record in ID order.
func (m *Memory) Records(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Count returns the number of records.
func (m *Memory) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// Close is a no-op so one instance can be shared across operations.
func (m *Memory) Close() error {
	return nil
}
