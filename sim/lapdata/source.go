// Package lapdata loads baseline-pace lap tables for the simulator.
package lapdata

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pitstop-ai/pitsim/sim"
)

// Source yields a lap table.
type Source interface {
	Load(ctx context.Context) (*sim.LapTable, error)
}

// Open picks a Source by file extension: SQLite for .db, .sqlite and .sqlite3,
// CSV otherwise. race selects the rows of a SQLite database and is ignored for CSV.
func Open(path, race string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return &SQLiteSource{DSN: path, Race: race}
	default:
		return &CSVSource{Path: path}
	}
}
