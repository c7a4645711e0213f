// Package store implements core.Store on SQLite, PostgreSQL and memory.
//
// Every backend keeps one table, ammo, with an auto-assigned ID column and
// the eleven data columns under their exact field names. Stores are opened
// per operation through the Opener returned by NewOpener.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ammo/internal/config"
	"github.com/JonMunkholm/ammo/internal/core"
)

// TableName is the inventory table.
const TableName = "ammo"

// NewOpener returns an opener for the configured driver.
//
// The memory driver hands out one shared instance so that records survive
// between operations for the life of the process.
func NewOpener(cfg config.StoreConfig) (core.Opener, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverSQLite, "":
		return func(ctx context.Context) (core.Store, error) {
			return OpenSQLite(ctx, cfg.Path, cfg.BusyTimeout)
		}, nil

	case config.DriverPostgres:
		return func(ctx context.Context) (core.Store, error) {
			return OpenPostgres(ctx, cfg.URL)
		}, nil

	case config.DriverMemory:
		mem := NewMemory()
		return func(context.Context) (core.Store, error) {
			return mem, nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// columnList joins names for a SELECT or INSERT, double-quoting each when
// quote is set.
func columnList(names []string, quote bool) string {
	parts := make([]string, len(names))
	for i, name := range names {
		if quote {
			parts[i] = `"` + name + `"`
		} else {
			parts[i] = name
		}
	}
	return strings.Join(parts, ", ")
}

func isQuantity(name string) bool {
	spec, ok := core.LookupField(name)
	return ok && spec.Type == core.FieldInteger
}
